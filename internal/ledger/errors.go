package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the named item has no row in the ledger.
	ErrNotFound = errors.New("item not found")

	// ErrStoreUnavailable wraps any failure talking to the ledger store.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrPartialBatch means a bulk write left only some cells written.
	ErrPartialBatch = errors.New("partial batch failure")

	// ErrInsufficientStock is returned by the reject policy when a sale
	// would drive the quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidLayout reports unusable LEDGER_COLUMNS settings.
	ErrInvalidLayout = errors.New("invalid ledger layout")
)

// storeErr tags err as a store failure while keeping the cause inspectable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
