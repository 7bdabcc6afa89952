package sheet

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used for demos (LEDGER_DRIVER=memory)
// and as the reference backend in tests.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string

	// FailBatchAfter, when > 0, makes BatchUpdate fail after writing that
	// many cells, leaving them applied.
	FailBatchAfter int
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore returns a store holding one sheet with the given rows
// (the first row is the header).
func NewMemoryStore(sheetName string, rows ...[]string) *MemoryStore {
	s := &MemoryStore{sheets: map[string][][]string{}}
	grid := make([][]string, 0, len(rows))
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	s.sheets[sheetName] = grid
	return s
}

func (s *MemoryStore) GetRows(ctx context.Context, rng Range) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	grid, ok := s.sheets[rng.Sheet]
	if !ok {
		return nil, ErrSheetNotFound
	}
	last := len(grid)
	if rng.EndRow != 0 && rng.EndRow < last {
		last = rng.EndRow
	}
	var out [][]string
	for r := rng.StartRow; r <= last; r++ {
		row := make([]string, rng.Width())
		for c := rng.StartCol; c <= rng.EndCol; c++ {
			if c-1 < len(grid[r-1]) {
				row[c-rng.StartCol] = grid[r-1][c-1]
			}
		}
		out = append(out, row)
	}
	return TrimRows(out), nil
}

func (s *MemoryStore) UpdateCell(ctx context.Context, ref CellRef, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.set(ref, value)
}

func (s *MemoryStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return &BatchError{Total: len(updates), Err: err}
	}
	for i, u := range updates {
		if s.FailBatchAfter > 0 && i >= s.FailBatchAfter {
			return &BatchError{Applied: i, Total: len(updates), Err: errInjected}
		}
		if err := s.set(u.Ref, u.Value); err != nil {
			return &BatchError{Applied: i, Total: len(updates), Err: err}
		}
	}
	return nil
}

func (s *MemoryStore) AppendRow(ctx context.Context, sheetName string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	grid, ok := s.sheets[sheetName]
	if !ok {
		return ErrSheetNotFound
	}
	s.sheets[sheetName] = append(TrimRows(grid), append([]string(nil), values...))
	return nil
}

// Snapshot returns a copy of a sheet's rows.
func (s *MemoryStore) Snapshot(sheetName string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.sheets[sheetName])
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.Err != nil {
		return s.Err
	}
	return ctx.Err()
}

func (s *MemoryStore) set(ref CellRef, value string) error {
	grid, ok := s.sheets[ref.Sheet]
	if !ok {
		return ErrSheetNotFound
	}
	for len(grid) < ref.Row {
		grid = append(grid, nil)
	}
	row := grid[ref.Row-1]
	for len(row) < ref.Col {
		row = append(row, "")
	}
	row[ref.Col-1] = value
	grid[ref.Row-1] = row
	s.sheets[ref.Sheet] = grid
	return nil
}
