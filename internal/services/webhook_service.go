// Package services – WebhookService
//
// WebhookService turns inbound Messenger text messages into ledger replies:
// it drops redelivered message ids, runs the text through the ledger
// manager, sends the reply, and records the exchange in the interaction
// log. Dispatch runs this in the background so the webhook can answer the
// platform immediately; Wait drains in-flight work on shutdown.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/ledger"
	"github.com/tbourn/go-ledger-bot/internal/messenger"
	"github.com/tbourn/go-ledger-bot/internal/repo"
)

// LedgerHandler applies one message for a user and returns the reply.
type LedgerHandler interface {
	Handle(ctx context.Context, userID, text string) ledger.Reply
}

// WebhookService processes webhook messages. The zero value is not usable;
// construct with NewWebhookService.
type WebhookService struct {
	// DB stores processed message ids and the interaction log. Nil disables both.
	DB     *gorm.DB
	Ledger LedgerHandler
	Sender messenger.Sender

	// DedupTTL is how long a message id is remembered.
	DedupTTL time.Duration
	// HandleTimeout bounds ledger handling of one message.
	HandleTimeout time.Duration

	now func() time.Time

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewWebhookService wires a WebhookService with default timeouts.
func NewWebhookService(db *gorm.DB, h LedgerHandler, sender messenger.Sender, dedupTTL time.Duration) *WebhookService {
	return &WebhookService{
		DB:            db,
		Ledger:        h,
		Sender:        sender,
		DedupTTL:      dedupTTL,
		HandleTimeout: 15 * time.Second,
		now:           time.Now,
	}
}

// Dispatch schedules every text message in env for background processing
// and returns how many were scheduled. Messages from the same sender are
// processed in delivery order; different senders run concurrently.
func (s *WebhookService) Dispatch(ctx context.Context, env messenger.Envelope) (int, error) {
	msgs := env.TextMessages()
	if len(msgs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return 0, ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	byUser := map[string][]messenger.Inbound{}
	var order []string
	for _, m := range msgs {
		if _, ok := byUser[m.UserID]; !ok {
			order = append(order, m.UserID)
		}
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	// keep trace context, drop request cancellation
	bg := context.WithoutCancel(ctx)

	var inner sync.WaitGroup
	for _, uid := range order {
		inner.Add(1)
		go func(batch []messenger.Inbound) {
			defer inner.Done()
			for _, in := range batch {
				if _, err := s.Process(bg, in); err != nil && !errors.Is(err, ErrDuplicateEvent) {
					log.Warn().Err(err).Str("user_id", in.UserID).Str("mid", in.MID).Msg("webhook message not fully processed")
				}
			}
		}(byUser[uid])
	}
	go func() {
		inner.Wait()
		s.wg.Done()
	}()
	return len(msgs), nil
}

// Process handles one message synchronously and returns the recorded
// interaction. The interaction is returned even when sending the reply
// failed, together with the send error.
func (s *WebhookService) Process(ctx context.Context, in messenger.Inbound) (*domain.Interaction, error) {
	tr := otel.Tracer("services/WebhookService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(
			attribute.String("user.id", in.UserID),
			attribute.String("message.mid", in.MID),
		),
	)
	defer span.End()

	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrMissingSender
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}

	if s.DB != nil && in.MID != "" {
		err := repo.MarkProcessed(ctx, s.DB, in.MID, in.UserID, s.DedupTTL, s.now().UTC())
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			span.SetAttributes(attribute.Bool("duplicate", true))
			return nil, ErrDuplicateEvent
		case err != nil:
			// dedup is best effort; a store hiccup must not drop the message
			log.Warn().Err(err).Str("mid", in.MID).Msg("dedup check failed")
		}
	}

	hctx := ctx
	if s.HandleTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, s.HandleTimeout)
		defer cancel()
	}
	reply := s.Ledger.Handle(hctx, in.UserID, in.Text)
	span.SetAttributes(
		attribute.String("command", string(reply.Kind)),
		attribute.String("outcome", reply.Outcome),
	)

	sendErr := s.Sender.Send(ctx, in.UserID, reply.Text)
	if sendErr != nil {
		span.RecordError(sendErr)
		log.Error().Err(sendErr).Str("user_id", in.UserID).Str("command", string(reply.Kind)).Msg("reply not delivered")
	}

	rec := &domain.Interaction{
		UserID:    in.UserID,
		Kind:      string(reply.Kind),
		Request:   in.Text,
		Reply:     reply.Text,
		Outcome:   reply.Outcome,
		Delivered: sendErr == nil,
	}
	if s.DB != nil {
		if err := repo.CreateInteraction(ctx, s.DB, rec); err != nil {
			log.Error().Err(err).Str("user_id", in.UserID).Msg("interaction not recorded")
		}
	}
	return rec, sendErr
}

// Wait stops accepting new work and blocks until in-flight messages finish
// or ctx is done.
func (s *WebhookService) Wait(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PurgeExpired removes processed-event records past their TTL.
func (s *WebhookService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, nil
	}
	return repo.PurgeExpiredEvents(ctx, s.DB, s.now().UTC())
}
