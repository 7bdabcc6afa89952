package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/repo"
	"github.com/tbourn/go-ledger-bot/internal/services"
)

func newInteractionDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:interaction_handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedInteractions(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		in := &domain.Interaction{
			UserID:    userID,
			Kind:      "show_inventory",
			Request:   "Show inventory",
			Reply:     "No items found.",
			Outcome:   domain.OutcomeOK,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateInteraction(context.Background(), db, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newInteractionRouter(svc InteractionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&stubHook{}, svc, "t")
	r.GET("/interactions", h.ListInteractions)
	return r
}

func TestListInteractions_PaginationAndFilter(t *testing.T) {
	db := newInteractionDB(t)
	seedInteractions(t, db, "u1", 3)
	seedInteractions(t, db, "u2", 1)
	r := newInteractionRouter(&services.InteractionService{DB: db})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/interactions?user_id=u1&page=1&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListInteractionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Interactions) != 2 {
		t.Fatalf("items=%d", len(resp.Interactions))
	}
	for _, it := range resp.Interactions {
		if it.UserID != "u1" {
			t.Fatalf("filter leaked user %q", it.UserID)
		}
	}
	p := resp.Pagination
	if p.Total != 3 || p.TotalPages != 2 || !p.HasNext || p.Page != 1 || p.PageSize != 2 {
		t.Fatalf("pagination=%+v", p)
	}
	if !resp.Interactions[0].CreatedAt.After(resp.Interactions[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/interactions", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 4 {
		t.Fatalf("all users total=%d", resp.Pagination.Total)
	}
}

func TestListInteractions_ETag304(t *testing.T) {
	db := newInteractionDB(t)
	seedInteractions(t, db, "u1", 1)
	r := newInteractionRouter(&services.InteractionService{DB: db})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/interactions?user_id=u1", nil))
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/interactions?user_id=u1", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("code=%d want 304", w.Code)
	}

	// new row changes the tag
	seedInteractions(t, db, "u1", 1)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/interactions?user_id=u1", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d want 200 after change", w.Code)
	}
}

type failingInteractions struct{}

func (failingInteractions) ListPage(context.Context, string, int, int) ([]domain.Interaction, int64, error) {
	return nil, 0, errors.New("db down")
}

func (failingInteractions) Stats(context.Context, string) (int64, *time.Time, error) {
	return 0, nil, errors.New("db down")
}

func TestListInteractions_ServiceError(t *testing.T) {
	r := newInteractionRouter(failingInteractions{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/interactions", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeListFailed {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
}
