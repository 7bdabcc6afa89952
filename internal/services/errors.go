// Package services defines the application use-cases behind the HTTP layer:
// dispatching webhook messages to the ledger and reading back the
// interaction log. This file centralizes service-level error values so
// callers can match them with errors.Is.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrDuplicateEvent means the message id was already handled within the
	// dedup window. The redelivery is acknowledged and dropped.
	ErrDuplicateEvent = errors.New("event already processed")

	// ErrMissingSender is returned for an inbound message without a sender id.
	ErrMissingSender = errors.New("sender id is required")

	// ErrEmptyText is returned for an inbound message with no text.
	ErrEmptyText = errors.New("message text is empty")

	// ErrShuttingDown is returned by Dispatch once Wait has started.
	ErrShuttingDown = errors.New("webhook service is shutting down")
)
