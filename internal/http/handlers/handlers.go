// Package handlers exposes the HTTP surface of the bot:
//   - GET  /webhook                 (subscription handshake)
//   - POST /webhook                 (event delivery)
//   - GET  {base}/interactions      (admin, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/messenger"
)

//
// Service contracts (context-aware)
//

// WebhookService accepts parsed webhook envelopes.
//
// Dispatch must return quickly; message handling happens in the background.
type WebhookService interface {
	// Dispatch schedules the envelope's text messages and returns how many
	// were scheduled.
	Dispatch(ctx context.Context, env messenger.Envelope) (int, error)
}

// InteractionService reads the interaction log.
type InteractionService interface {
	// ListPage returns a page of interactions for userID ("" = all) and the total.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Interaction, int64, error)
	// Stats returns the count and newest update time, used for ETags.
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the webhook and admin endpoints.
type Handlers struct {
	hook         WebhookService
	interactions InteractionService
	verifyToken  string
}

// New constructs Handlers. interactions may be nil when the admin API is off.
func New(hook WebhookService, interactions InteractionService, verifyToken string) *Handlers {
	return &Handlers{hook: hook, interactions: interactions, verifyToken: verifyToken}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInteractionsResponse wraps a page of interactions.
type ListInteractionsResponse struct {
	Interactions []domain.Interaction `json:"interactions"`
	Pagination   Pagination           `json:"pagination"`
}
