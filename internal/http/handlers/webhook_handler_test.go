package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ledger-bot/internal/messenger"
	"github.com/tbourn/go-ledger-bot/internal/services"
)

type stubHook struct {
	got  []messenger.Envelope
	n    int
	err  error
	call int
}

func (s *stubHook) Dispatch(_ context.Context, env messenger.Envelope) (int, error) {
	s.call++
	s.got = append(s.got, env)
	return s.n, s.err
}

func newWebhookRouter(hook WebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(hook, nil, "s3cret")
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)
	return r
}

func TestVerifyWebhook(t *testing.T) {
	r := newWebhookRouter(&stubHook{})

	cases := []struct {
		name  string
		query string
		code  int
		body  string
	}{
		{"ok", "hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=1158201444", http.StatusOK, "1158201444"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", http.StatusForbidden, `"verification_failed"`},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=s3cret&hub.challenge=1", http.StatusForbidden, `"verification_failed"`},
		{"missing token", "hub.mode=subscribe&hub.challenge=1", http.StatusBadRequest, `"bad_request"`},
		{"missing all", "", http.StatusBadRequest, `"bad_request"`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?"+tc.query, nil))
		if w.Code != tc.code {
			t.Fatalf("%s: code=%d want %d body=%s", tc.name, w.Code, tc.code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), tc.body) {
			t.Fatalf("%s: body=%q want to contain %q", tc.name, w.Body.String(), tc.body)
		}
	}
}

func TestReceiveWebhook_Dispatches(t *testing.T) {
	hook := &stubHook{n: 1}
	r := newWebhookRouter(hook)

	body := `{"object":"page","entry":[{"id":"p","time":1,"messaging":[{"sender":{"id":"u1"},"recipient":{"id":"p"},"timestamp":1,"message":{"mid":"m1","text":"Show inventory"}}]}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != EventReceived {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
	if hook.call != 1 {
		t.Fatalf("dispatch calls=%d", hook.call)
	}
	msgs := hook.got[0].TextMessages()
	if len(msgs) != 1 || msgs[0].UserID != "u1" || msgs[0].Text != "Show inventory" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestReceiveWebhook_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"malformed", `{"object":`, nil, http.StatusBadRequest},
		{"not page", `{"object":"instagram","entry":[]}`, nil, http.StatusNotFound},
		{"shutting down", `{"object":"page","entry":[]}`, services.ErrShuttingDown, http.StatusServiceUnavailable},
		{"dispatch error", `{"object":"page","entry":[]}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		hook := &stubHook{err: tc.err}
		r := newWebhookRouter(hook)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Fatalf("%s: code=%d want %d body=%s", tc.name, w.Code, tc.code, w.Body.String())
		}
	}
}

func TestReceiveWebhook_EmptyEntryStillAcknowledged(t *testing.T) {
	hook := &stubHook{}
	r := newWebhookRouter(hook)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"object":"page","entry":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
}
