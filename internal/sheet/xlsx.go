package sheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSXStore keeps the ledger in an .xlsx workbook on disk. Every call opens
// the workbook, applies the operation in memory, and saves once, so a batch
// is either fully saved or not saved at all. Access is serialized within the
// process; concurrent writers from other processes are not coordinated.
type XLSXStore struct {
	path string
	mu   sync.Mutex
}

// OpenXLSX returns a store for path. When the file does not exist it is
// created with a single sheet named sheetName.
func OpenXLSX(path, sheetName string) (*XLSXStore, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		defer f.Close()
		if sheetName != "" && sheetName != "Sheet1" {
			if err := f.SetSheetName("Sheet1", sheetName); err != nil {
				return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		}
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("xlsx: create %s: %w", path, err)
		}
	} else if err != nil {
		return nil, err
	}
	return &XLSXStore{path: path}, nil
}

// Path returns the workbook location.
func (s *XLSXStore) Path() string { return s.path }

func (s *XLSXStore) GetRows(ctx context.Context, rng Range) ([][]string, error) {
	var out [][]string
	err := s.with(ctx, false, func(f *excelize.File) error {
		if err := requireSheet(f, rng.Sheet); err != nil {
			return err
		}
		rows, err := f.GetRows(rng.Sheet)
		if err != nil {
			return err
		}
		last := len(rows)
		if rng.EndRow != 0 && rng.EndRow < last {
			last = rng.EndRow
		}
		for r := rng.StartRow; r <= last; r++ {
			src := rows[r-1]
			row := make([]string, rng.Width())
			for c := rng.StartCol; c <= rng.EndCol; c++ {
				if c-1 < len(src) {
					row[c-rng.StartCol] = src[c-1]
				}
			}
			out = append(out, row)
		}
		out = TrimRows(out)
		return nil
	})
	return out, err
}

func (s *XLSXStore) UpdateCell(ctx context.Context, ref CellRef, value string) error {
	return s.with(ctx, true, func(f *excelize.File) error {
		if err := requireSheet(f, ref.Sheet); err != nil {
			return err
		}
		return f.SetCellValue(ref.Sheet, ref.Cell(), cellValue(value))
	})
}

func (s *XLSXStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	err := s.with(ctx, true, func(f *excelize.File) error {
		for _, u := range updates {
			if err := requireSheet(f, u.Ref.Sheet); err != nil {
				return err
			}
			if err := f.SetCellValue(u.Ref.Sheet, u.Ref.Cell(), cellValue(u.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Nothing was saved: the workbook is only written after every cell applied.
		return &BatchError{Applied: 0, Total: len(updates), Err: err}
	}
	return nil
}

func (s *XLSXStore) AppendRow(ctx context.Context, sheetName string, values []string) error {
	return s.with(ctx, true, func(f *excelize.File) error {
		if err := requireSheet(f, sheetName); err != nil {
			return err
		}
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return err
		}
		next := len(TrimRows(rows)) + 1
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = cellValue(v)
		}
		return f.SetSheetRow(sheetName, cell, &row)
	})
}

// with opens the workbook under the store mutex, runs fn, and saves when
// write is set and fn succeeded.
func (s *XLSXStore) with(ctx context.Context, write bool, fn func(*excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("xlsx: open %s: %w", s.path, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	if !write {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", s.path, err)
	}
	return nil
}

func requireSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	return nil
}

// cellValue stores integers and decimals as numbers so the workbook stays
// usable with spreadsheet formulas.
func cellValue(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return v
}
