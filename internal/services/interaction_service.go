// Package services – InteractionService
//
// InteractionService reads the interaction log for the admin API:
// paginated listing plus the aggregate used to build ETags.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/repo"
	"github.com/tbourn/go-ledger-bot/internal/utils"
)

// InteractionService lists recorded interactions.
type InteractionService struct {
	DB *gorm.DB
}

// ListPage returns a page of interactions for userID ("" = all users),
// newest first, and the total count.
func (s *InteractionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Interaction, int64, error) {
	tr := otel.Tracer("services/InteractionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	pg := utils.NewPage(page, pageSize)

	total, err := repo.CountInteractions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Interaction{}, 0, nil
	}

	items, err := repo.ListInteractionsPage(ctx, s.DB, userID, pg.Offset(), pg.Size)
	return items, total, err
}

// Stats returns the interaction count and latest update time for userID.
func (s *InteractionService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.InteractionsStats(ctx, s.DB, userID)
}
