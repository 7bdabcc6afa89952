package sheet

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned for malformed A1 notation.
	ErrInvalidRange = errors.New("invalid range")

	// ErrSheetNotFound indicates the addressed sheet does not exist in the book.
	ErrSheetNotFound = errors.New("sheet not found")

	errInjected = errors.New("injected batch failure")
)

// CellUpdate is one (cell, value) pair of a batch write.
type CellUpdate struct {
	Ref   CellRef
	Value string
}

// Store is the ledger backend. Rows are returned in sheet order starting at
// the range's first row; each row has exactly Range.Width() values (missing
// cells are ""). Trailing all-empty rows are omitted.
type Store interface {
	GetRows(ctx context.Context, rng Range) ([][]string, error)
	UpdateCell(ctx context.Context, ref CellRef, value string) error
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
	AppendRow(ctx context.Context, sheetName string, values []string) error
}

// BatchError reports a batch write that did not complete. Applied counts the
// updates known to have been written before the failure; 0 means nothing was
// written (the backend rolled back or failed up front).
type BatchError struct {
	Applied int
	Total   int
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch update: %d of %d cells written: %v", e.Applied, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Partial reports whether some, but not all, cells were written.
func (e *BatchError) Partial() bool { return e.Applied > 0 && e.Applied < e.Total }

// TrimRows drops trailing rows whose cells are all empty.
func TrimRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
