package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(rps float64, burst int) (*RateLimiter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(rps, burst, KeyBySubjectOrIP())
	rl.now = clk.now
	return rl, clk
}

func TestKeyBySubjectOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if got := KeyBySubjectOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("expected ip key, got %q", got)
	}
	c.Set(ctxKeySubject, "ops")
	if got := KeyBySubjectOrIP()(c); got != "admin:ops" {
		t.Fatalf("expected admin key, got %q", got)
	}
}

func TestNewRateLimiter_RaisesBurst(t *testing.T) {
	rl := NewRateLimiter(2, -3, KeyBySubjectOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
	if rl.bucketFor("k") != rl.bucketFor("k") {
		t.Fatalf("expected bucket reuse for the same key")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl, clk := newTestLimiter(1, 1)
	rl.bucketFor("ip:a")
	rl.bucketFor("ip:b")

	clk.advance(defaultBucketTTL / 2)
	rl.bucketFor("ip:b")
	if rl.size() != 2 {
		t.Fatalf("no sweep expected yet, have %d buckets", rl.size())
	}

	clk.advance(defaultBucketTTL / 2)
	rl.bucketFor("ip:c")
	// a idle for a full ttl, b touched half a ttl ago
	if rl.size() != 2 {
		t.Fatalf("expected a evicted, have %d buckets", rl.size())
	}
	rl.mu.Lock()
	_, hasA := rl.buckets["ip:a"]
	rl.mu.Unlock()
	if hasA {
		t.Fatalf("idle bucket was not evicted")
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatalf("unset flag must not bypass")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("non-bool flag must not bypass")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("expected bypass")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, clk := newTestLimiter(0.5, 1)

	r := gin.New()
	r.Use(RequestID())
	r.GET("/limited", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/signed", func(c *gin.Context) { c.Set(ctxKeyRateBypass, true) }, rl.Handler(),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.4:5000"
		r.ServeHTTP(w, req)
		return w
	}

	before := testutil.ToFloat64(rateLimited.WithLabelValues("ip"))

	if w := do("/limited"); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w := do("/limited")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: want 429, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "2" {
		t.Fatalf("Retry-After = %q, want 2", ra)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
	if got := testutil.ToFloat64(rateLimited.WithLabelValues("ip")); got != before+1 {
		t.Fatalf("rate limited counter = %v, want %v", got, before+1)
	}

	for i := 0; i < 3; i++ {
		if w := do("/signed"); w.Code != http.StatusOK {
			t.Fatalf("signed request %d throttled: %d", i, w.Code)
		}
	}

	clk.advance(2 * time.Second)
	if w := do("/limited"); w.Code != http.StatusOK {
		t.Fatalf("after refill: %d", w.Code)
	}
}

func TestRetryAfter_ZeroLimit(t *testing.T) {
	rl, clk := newTestLimiter(0, 1)
	lim := rl.bucketFor("k")
	lim.AllowN(clk.now(), 1)
	if got := retryAfter(lim, clk.now()); got != "60" {
		t.Fatalf("retryAfter = %q", got)
	}
}
