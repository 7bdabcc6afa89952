package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ledger-bot/internal/domain"
)

// InteractionsStats reports how many interactions match userID ("" = all)
// and when the newest of them was last updated. Both feed the admin list
// ETag. With no rows it returns 0 and a nil time.
func InteractionsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Interaction{}).Scopes(scopeUser(userID))
	}

	// Ordering instead of MAX() keeps the column typed on SQLite.
	var latest domain.Interaction
	err := scoped().Select("updated_at").Order("updated_at DESC").Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}

	var n int64
	if err := scoped().Count(&n).Error; err != nil {
		return 0, nil, err
	}
	return n, &latest.UpdatedAt, nil
}
