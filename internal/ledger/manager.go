// Package ledger applies chat commands to the inventory sheet. The Manager
// owns the per-user session state machine (Idle, AwaitingBulkUpdate) and
// turns every outcome, including store failures, into reply text.
//
// Quantity updates read the row, compute the new value, and write it back
// without a compare-and-swap: a concurrent update to the same row between
// the read and the write is lost. Stores offer no conditional write, so
// this race is accepted and left to low request volume.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-ledger-bot/internal/command"
	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/observability"
	"github.com/tbourn/go-ledger-bot/internal/search"
	"github.com/tbourn/go-ledger-bot/internal/session"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

// Reply is the result of handling one message.
type Reply struct {
	Kind    command.Kind
	Text    string
	Outcome string // one of the domain.Outcome* values
	Err     error  // underlying failure, if any; never shown to the user
}

// Manager handles messages for all users. It is safe for concurrent use;
// messages from the same user are serialized.
type Manager struct {
	Store    sheet.Store
	Sessions session.Store
	Layout   Layout
	Policy   SoldPolicy

	// SessionTTL bounds how long a bulk-update session waits for input.
	SessionTTL time.Duration
	// EndOnInvalid ends the session when the bulk message has no valid
	// lines. When false the session stays open for another try.
	EndOnInvalid bool

	locks *session.KeyedMutex
	now   func() time.Time
}

// NewManager returns a Manager with the default policy (AllowNegative),
// a 10 minute session TTL, and sessions ending on any next message.
func NewManager(store sheet.Store, sessions session.Store, layout Layout) *Manager {
	return &Manager{
		Store:        store,
		Sessions:     sessions,
		Layout:       layout,
		Policy:       AllowNegative,
		SessionTTL:   10 * time.Minute,
		EndOnInvalid: true,
		locks:        session.NewKeyedMutex(),
		now:          time.Now,
	}
}

// Handle interprets text for userID, taking any pending session into
// account, and applies the resulting command.
func (m *Manager) Handle(ctx context.Context, userID, text string) Reply {
	tr := otel.Tracer("ledger/Manager")
	ctx, span := tr.Start(ctx, "Handle", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	unlock := m.locks.Lock(userID)
	defer unlock()

	var r Reply
	sess, err := m.Sessions.Take(ctx, userID)
	switch {
	case err == nil && sess.Mode == session.AwaitingBulkUpdate:
		r = m.bulk(ctx, sess, command.InterpretBulk(text))
	case err != nil && !errors.Is(err, session.ErrNotFound):
		// session backend down: carry on as idle
		log.Warn().Err(err).Str("user_id", userID).Msg("session lookup failed")
		fallthrough
	default:
		r = m.execute(ctx, userID, command.Interpret(text))
	}

	span.SetAttributes(
		attribute.String("command", string(r.Kind)),
		attribute.String("outcome", r.Outcome),
	)
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Outcome)
	}
	observability.LedgerCommands.WithLabelValues(string(r.Kind), r.Outcome).Inc()
	return r
}

// Execute applies a single command outside any session. BulkUpdate
// commands are applied directly, without consulting the session store.
func (m *Manager) Execute(ctx context.Context, userID string, cmd command.Command) Reply {
	unlock := m.locks.Lock(userID)
	defer unlock()
	r := m.execute(ctx, userID, cmd)
	observability.LedgerCommands.WithLabelValues(string(r.Kind), r.Outcome).Inc()
	return r
}

func (m *Manager) execute(ctx context.Context, userID string, cmd command.Command) Reply {
	switch c := cmd.(type) {
	case command.AddQuantity:
		return m.adjust(ctx, c.Kind(), c.Item, c.Delta)
	case command.SoldQuantity:
		return m.adjust(ctx, c.Kind(), c.Item, c.Delta)
	case command.ShowInventory:
		return m.read(ctx, c.Kind(), inventoryText)
	case command.ShowTotal:
		return m.read(ctx, c.Kind(), totalsText)
	case command.BeginBulkUpdate:
		return m.begin(ctx, userID)
	case command.BulkUpdate:
		return m.bulk(ctx, session.Session{UserID: userID, Mode: session.AwaitingBulkUpdate}, c)
	case command.BulkUpdateLine:
		return m.bulk(ctx, session.Session{UserID: userID, Mode: session.AwaitingBulkUpdate}, command.BulkUpdate{Lines: []command.BulkUpdateLine{c}})
	default:
		return Reply{Kind: command.KindUnrecognized, Text: HelpText, Outcome: domain.OutcomeInvalid}
	}
}

func (m *Manager) load(ctx context.Context) ([]Entry, error) {
	rows, err := m.Store.GetRows(ctx, m.Layout.Range())
	if err != nil {
		return nil, storeErr("read ledger", err)
	}
	return m.Layout.Entries(rows), nil
}

func (m *Manager) read(ctx context.Context, kind command.Kind, format func([]Entry) string) Reply {
	entries, err := m.load(ctx)
	if err != nil {
		return m.unavailable(kind, err)
	}
	return Reply{Kind: kind, Text: format(entries), Outcome: domain.OutcomeOK}
}

func (m *Manager) adjust(ctx context.Context, kind command.Kind, item string, delta int) Reply {
	entries, err := m.load(ctx)
	if err != nil {
		return m.unavailable(kind, err)
	}
	e, ok := find(entries, item)
	if !ok {
		return Reply{
			Kind:    kind,
			Text:    notFoundText(item, suggest(entries, item)),
			Outcome: domain.OutcomeNotFound,
			Err:     ErrNotFound,
		}
	}

	next, verb := e.Quantity+delta, "Added"
	if kind == command.KindSold {
		verb = "Sold"
		next, err = m.Policy.Apply(e.Quantity, delta)
		if err != nil {
			return Reply{Kind: kind, Text: insufficientText(e, delta), Outcome: domain.OutcomeInvalid, Err: err}
		}
	}

	ups, err := m.Layout.Writes(e, next)
	if err != nil {
		return m.unavailable(kind, err)
	}
	if len(ups) == 1 {
		err = m.Store.UpdateCell(ctx, ups[0].Ref, ups[0].Value)
	} else {
		err = m.Store.BatchUpdate(ctx, ups)
	}
	if err != nil {
		return m.unavailable(kind, storeErr("write quantity", err))
	}
	return Reply{Kind: kind, Text: changeText(verb, delta, e.Name, e.Quantity, next), Outcome: domain.OutcomeOK}
}

func (m *Manager) begin(ctx context.Context, userID string) Reply {
	kind := command.KindBeginBulk
	entries, err := m.load(ctx)
	if err != nil {
		return m.unavailable(kind, err)
	}
	now := m.now()
	sess := session.Session{UserID: userID, Mode: session.AwaitingBulkUpdate, CreatedAt: now}
	if m.SessionTTL > 0 {
		sess.ExpiresAt = now.Add(m.SessionTTL)
	}
	if err := m.Sessions.Set(ctx, sess); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("session create failed")
		return Reply{Kind: kind, Text: UnavailableText, Outcome: domain.OutcomeFailed, Err: err}
	}
	return Reply{Kind: kind, Text: templateText(entries), Outcome: domain.OutcomeOK}
}

// bulk applies one bulk-update message. The session has already been
// removed; it is restored only when the message had no valid lines and
// EndOnInvalid is off.
func (m *Manager) bulk(ctx context.Context, sess session.Session, cmd command.BulkUpdate) Reply {
	kind := command.KindBulkUpdate
	if len(cmd.Lines) == 0 {
		if !m.EndOnInvalid && !sess.CreatedAt.IsZero() {
			if err := m.Sessions.Set(ctx, sess); err != nil {
				log.Error().Err(err).Str("user_id", sess.UserID).Msg("session restore failed")
				return Reply{Kind: kind, Text: NoBulkLinesText, Outcome: domain.OutcomeInvalid, Err: err}
			}
			return Reply{Kind: kind, Text: RetryBulkText, Outcome: domain.OutcomeInvalid}
		}
		return Reply{Kind: kind, Text: NoBulkLinesText, Outcome: domain.OutcomeInvalid}
	}

	entries, err := m.load(ctx)
	if err != nil {
		return m.unavailable(kind, err)
	}

	var (
		changes []bulkChange
		misses  []bulkMiss
		ups     []sheet.CellUpdate
		byRow   = map[int]int{} // row -> index into changes
	)
	for _, line := range cmd.Lines {
		e, ok := find(entries, line.Item)
		if !ok {
			misses = append(misses, bulkMiss{item: line.Item, suggestion: suggest(entries, line.Item)})
			continue
		}
		if i, dup := byRow[e.Row]; dup {
			// last line for an item wins
			changes[i].to = line.Quantity
		} else {
			byRow[e.Row] = len(changes)
			changes = append(changes, bulkChange{name: e.Name, from: e.Quantity, to: line.Quantity})
		}
	}
	for _, c := range changes {
		e, _ := find(entries, c.name)
		w, err := m.Layout.Writes(e, c.to)
		if err != nil {
			return m.unavailable(kind, err)
		}
		ups = append(ups, w...)
	}

	if len(ups) == 0 {
		return Reply{Kind: kind, Text: bulkText(nil, misses, cmd.Rejected), Outcome: domain.OutcomeNotFound, Err: ErrNotFound}
	}
	if err := m.Store.BatchUpdate(ctx, ups); err != nil {
		var be *sheet.BatchError
		if errors.As(err, &be) {
			if be.Partial() {
				err = errors.Join(ErrPartialBatch, err)
			}
			log.Error().Err(err).Str("user_id", sess.UserID).Int("applied", be.Applied).Int("total", be.Total).Msg("bulk update failed")
			return Reply{Kind: kind, Text: batchFailureText(be.Applied, be.Total), Outcome: domain.OutcomeFailed, Err: err}
		}
		return m.unavailable(kind, storeErr("bulk update", err))
	}
	return Reply{Kind: kind, Text: bulkText(changes, misses, cmd.Rejected), Outcome: domain.OutcomeOK}
}

func (m *Manager) unavailable(kind command.Kind, err error) Reply {
	log.Error().Err(err).Str("command", string(kind)).Msg("ledger store call failed")
	return Reply{Kind: kind, Text: UnavailableText, Outcome: domain.OutcomeFailed, Err: err}
}

// suggest returns the closest existing item name to item, or "".
func suggest(entries []Entry, item string) string {
	if len(entries) == 0 || strings.TrimSpace(item) == "" {
		return ""
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	s, _ := search.Suggest(search.NewIndexFromStrings(names), item)
	return s
}
