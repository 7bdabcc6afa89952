package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ledger-bot/internal/domain"
)

// CreateInteraction inserts a new interaction row. ID and CreatedAt are
// filled in when empty.
func CreateInteraction(ctx context.Context, db *gorm.DB, in *domain.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(in).Error
}

// scopeUser filters by user id unless it is empty.
func scopeUser(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == "" {
			return db
		}
		return db.Where("user_id = ?", userID)
	}
}

// CountInteractions uses a model COUNT scoped to userID ("" = all users).
func CountInteractions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Interaction{}).Scopes(scopeUser(userID)).Count(&total).Error
	return total, err
}

// ListInteractionsPage returns a page ordered newest first (CreatedAt DESC, ID DESC).
func ListInteractionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).
		Scopes(scopeUser(userID)).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
