package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ledger-bot/internal/domain"
)

// ErrDuplicate indicates the message id was already processed and its
// record has not expired yet.
var ErrDuplicate = errors.New("duplicate")

// MarkProcessed records mid as processed until now+ttl. It returns
// ErrDuplicate when a live record already exists; an expired record is
// reclaimed.
func MarkProcessed(ctx context.Context, db *gorm.DB, mid, userID string, ttl time.Duration, now time.Time) error {
	rec := &domain.ProcessedEvent{
		MID:       mid,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return err
	}

	// Reclaim an expired record; RowsAffected==0 means it is still live.
	res := db.WithContext(ctx).Model(&domain.ProcessedEvent{}).
		Where("mid = ? AND expires_at <= ?", mid, now).
		Updates(map[string]any{"user_id": userID, "created_at": now, "expires_at": now.Add(ttl)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// PurgeExpiredEvents deletes processed-event records that expired at or before now.
func PurgeExpiredEvents(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.ProcessedEvent{})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key") ||
		strings.Contains(low, "duplicate entry")
}
