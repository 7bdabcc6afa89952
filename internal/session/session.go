// Package session holds per-user conversational state for the ledger bot:
// the Session value, the Store abstraction with in-memory and Redis
// backends, and a keyed mutex for serializing a user's messages.
package session

import (
	"context"
	"errors"
	"time"
)

// Mode is the conversational state of a user.
type Mode string

const (
	// Idle means no multi-step interaction is pending.
	Idle Mode = "idle"
	// AwaitingBulkUpdate means the next message is read as bulk update lines.
	AwaitingBulkUpdate Mode = "awaiting_bulk_update"
)

// ErrNotFound is returned when the user has no live session.
var ErrNotFound = errors.New("session not found")

// Session is the pending state of one user. At most one exists per user;
// Set replaces any previous one.
type Session struct {
	UserID    string    `json:"user_id"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its deadline at now. A zero
// ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions keyed by user id. Expired sessions behave as
// absent. Take atomically reads and deletes.
type Store interface {
	Get(ctx context.Context, userID string) (Session, error)
	Set(ctx context.Context, s Session) error
	Take(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}
