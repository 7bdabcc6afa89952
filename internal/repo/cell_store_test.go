package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

func mustRange(t *testing.T, s string) sheet.Range {
	t.Helper()
	r, err := sheet.ParseRange(s)
	if err != nil {
		t.Fatalf("ParseRange(%q): %v", s, err)
	}
	return r
}

func newCellStore(t *testing.T, book string) *CellStore {
	t.Helper()
	db := newTestDB(t, &domain.Cell{})
	return NewCellStore(db, book)
}

func TestCellStore_AppendAndGetRows(t *testing.T) {
	ctx := context.Background()
	s := newCellStore(t, "inventory")

	for _, row := range [][]string{
		{"Item", "Price", "Quantity", "Total"},
		{"Pandecoco", "2", "5", "10"},
		{"Cheesebread", "", "0", ""},
	} {
		if err := s.AppendRow(ctx, "Sheet1", row); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}

	rows, err := s.GetRows(ctx, mustRange(t, "Sheet1!A:D"))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "Pandecoco" || rows[2][2] != "0" || rows[2][1] != "" {
		t.Fatalf("unexpected rows: %#v", rows)
	}

	sub, err := s.GetRows(ctx, mustRange(t, "Sheet1!B2:C3"))
	if err != nil {
		t.Fatalf("GetRows sub-range: %v", err)
	}
	if len(sub) != 2 || sub[0][0] != "2" || sub[0][1] != "5" || sub[1][1] != "0" {
		t.Fatalf("unexpected sub-range rows: %#v", sub)
	}
}

func TestCellStore_BooksAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.Cell{})
	a := NewCellStore(db, "a")
	b := NewCellStore(db, "b")

	if err := a.AppendRow(ctx, "Sheet1", []string{"Item", "Qty"}); err != nil {
		t.Fatalf("append a: %v", err)
	}
	rows, err := b.GetRows(ctx, mustRange(t, "Sheet1!A:B"))
	if err != nil || len(rows) != 0 {
		t.Fatalf("book b should be empty, got %#v err=%v", rows, err)
	}
}

func TestCellStore_UpdateCellUpserts(t *testing.T) {
	ctx := context.Background()
	s := newCellStore(t, "inventory")
	ref := sheet.CellRef{Sheet: "Sheet1", Col: 3, Row: 2}

	if err := s.UpdateCell(ctx, ref, "5"); err != nil {
		t.Fatalf("UpdateCell insert: %v", err)
	}
	if err := s.UpdateCell(ctx, ref, "15"); err != nil {
		t.Fatalf("UpdateCell update: %v", err)
	}
	var n int64
	s.DB.Model(&domain.Cell{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one cell row after upsert, got %d", n)
	}
	rows, _ := s.GetRows(ctx, mustRange(t, "Sheet1!C2:C2"))
	if len(rows) != 1 || rows[0][0] != "15" {
		t.Fatalf("unexpected value: %#v", rows)
	}

	if err := s.UpdateCell(ctx, sheet.CellRef{Sheet: "Sheet1", Col: 0, Row: 1}, "x"); !errors.Is(err, sheet.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestCellStore_BatchUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newCellStore(t, "inventory")
	_ = s.AppendRow(ctx, "Sheet1", []string{"Item", "Qty"})
	_ = s.AppendRow(ctx, "Sheet1", []string{"A", "1"})

	err := s.BatchUpdate(ctx, []sheet.CellUpdate{
		{Ref: sheet.CellRef{Sheet: "Sheet1", Col: 2, Row: 2}, Value: "10"},
		{Ref: sheet.CellRef{Sheet: "Sheet1", Col: 0, Row: 3}, Value: "bad"},
	})
	var be *sheet.BatchError
	if !errors.As(err, &be) || be.Partial() || be.Total != 2 {
		t.Fatalf("expected non-partial BatchError, got %v", err)
	}
	rows, _ := s.GetRows(ctx, mustRange(t, "Sheet1!A:B"))
	if rows[1][1] != "1" {
		t.Fatalf("rolled back batch must leave data unchanged, got %#v", rows)
	}

	if err := s.BatchUpdate(ctx, []sheet.CellUpdate{
		{Ref: sheet.CellRef{Sheet: "Sheet1", Col: 2, Row: 2}, Value: "10"},
		{Ref: sheet.CellRef{Sheet: "Sheet1", Col: 1, Row: 3}, Value: "B"},
		{Ref: sheet.CellRef{Sheet: "Sheet1", Col: 2, Row: 3}, Value: "30"},
	}); err != nil {
		t.Fatalf("BatchUpdate: %v", err)
	}
	rows, _ = s.GetRows(ctx, mustRange(t, "Sheet1!A:B"))
	if len(rows) != 3 || rows[1][1] != "10" || rows[2][0] != "B" || rows[2][1] != "30" {
		t.Fatalf("unexpected rows after batch: %#v", rows)
	}

	if err := s.BatchUpdate(ctx, nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestCellStore_ImplementsStore(t *testing.T) {
	var _ sheet.Store = (*CellStore)(nil)
}
