package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

// CellStore is a sheet.Store persisted as one row per written cell in the
// cells table. Book scopes every query, so several ledgers can share a
// database. BatchUpdate runs in a single transaction.
type CellStore struct {
	DB   *gorm.DB
	Book string
}

// NewCellStore returns a store for book.
func NewCellStore(db *gorm.DB, book string) *CellStore {
	return &CellStore{DB: db, Book: book}
}

func (s *CellStore) GetRows(ctx context.Context, rng sheet.Range) ([][]string, error) {
	q := s.DB.WithContext(ctx).
		Where("book = ? AND sheet = ? AND col_num BETWEEN ? AND ? AND row_num >= ?", s.Book, rng.Sheet, rng.StartCol, rng.EndCol, rng.StartRow)
	if rng.EndRow != 0 {
		q = q.Where("row_num <= ?", rng.EndRow)
	}
	var cells []domain.Cell
	if err := q.Order("row_num ASC, col_num ASC").Find(&cells).Error; err != nil {
		return nil, err
	}

	var out [][]string
	for _, c := range cells {
		idx := c.Row - rng.StartRow
		for len(out) <= idx {
			out = append(out, make([]string, rng.Width()))
		}
		out[idx][c.Col-rng.StartCol] = c.Value
	}
	return sheet.TrimRows(out), nil
}

func (s *CellStore) UpdateCell(ctx context.Context, ref sheet.CellRef, value string) error {
	return upsertCell(s.DB.WithContext(ctx), s.Book, ref, value)
}

// BatchUpdate writes every cell or none of them.
func (s *CellStore) BatchUpdate(ctx context.Context, updates []sheet.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := upsertCell(tx, s.Book, u.Ref, u.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &sheet.BatchError{Applied: 0, Total: len(updates), Err: err}
	}
	return nil
}

// AppendRow writes values into the first row after the last used row of the sheet.
func (s *CellStore) AppendRow(ctx context.Context, sheetName string, values []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ RowNum int }
		err := tx.Model(&domain.Cell{}).
			Select("row_num").
			Where("book = ? AND sheet = ? AND value <> ''", s.Book, sheetName).
			Order("row_num DESC").
			Limit(1).
			Scan(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := last.RowNum + 1
		for i, v := range values {
			if err := upsertCell(tx, s.Book, sheet.CellRef{Sheet: sheetName, Col: i + 1, Row: row}, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertCell(db *gorm.DB, book string, ref sheet.CellRef, value string) error {
	if ref.Row < 1 || ref.Col < 1 {
		return fmt.Errorf("%w: %s", sheet.ErrInvalidRange, ref)
	}
	c := domain.Cell{
		Book:      book,
		Sheet:     ref.Sheet,
		Row:       ref.Row,
		Col:       ref.Col,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book"}, {Name: "sheet"}, {Name: "row_num"}, {Name: "col_num"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&c).Error
}
