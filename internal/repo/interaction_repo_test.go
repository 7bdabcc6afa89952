package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-ledger-bot/internal/domain"
)

func TestCreateInteraction_FillsIDAndTime(t *testing.T) {
	db := newTestDB(t, &domain.Interaction{})
	in := &domain.Interaction{UserID: "u1", Kind: "add", Request: "Add 1 X", Reply: "ok", Outcome: domain.OutcomeOK}
	if err := CreateInteraction(context.Background(), db, in); err != nil {
		t.Fatalf("CreateInteraction: %v", err)
	}
	if len(in.ID) != 36 || in.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", in)
	}
}

func TestCreateInteraction_RejectsUnknownOutcome(t *testing.T) {
	db := newTestDB(t, &domain.Interaction{})
	in := &domain.Interaction{UserID: "u1", Kind: "add", Request: "x", Reply: "y", Outcome: "bogus"}
	if err := CreateInteraction(context.Background(), db, in); err == nil {
		t.Fatalf("expected check constraint error")
	}
}

func TestListInteractionsPage_OrderAndScope(t *testing.T) {
	db := newTestDB(t, &domain.Interaction{})
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i, uid := range []string{"u1", "u1", "u2", "u1"} {
		in := &domain.Interaction{
			UserID:    uid,
			Kind:      "show_inventory",
			Request:   "Show Inventory",
			Reply:     "Inventory:",
			Outcome:   domain.OutcomeOK,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := CreateInteraction(ctx, db, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	total, err := CountInteractions(ctx, db, "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountInteractions(u1) = %d, %v; want 3", total, err)
	}
	all, err := CountInteractions(ctx, db, "")
	if err != nil || all != 4 {
		t.Fatalf("CountInteractions(all) = %d, %v; want 4", all, err)
	}

	page, err := ListInteractionsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListInteractionsPage: %v", err)
	}
	if len(page) != 2 || !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Fatalf("expected newest-first page of 2, got %+v", page)
	}
	rest, err := ListInteractionsPage(ctx, db, "u1", 2, 2)
	if err != nil || len(rest) != 1 {
		t.Fatalf("second page = %d rows, err=%v; want 1", len(rest), err)
	}
}

func TestCountInteractions_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CountInteractions(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error for missing table")
	}
}
