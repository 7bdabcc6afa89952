// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the process-local token-bucket limiter. Buckets are keyed
// by admin subject or client address and swept on a wall-clock schedule so
// idle senders do not accumulate.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// ctxKeyRateBypass marks a request as exempt from rate limiting.
	ctxKeyRateBypass = "rate.bypass"
	// ctxKeySubject is where AdminAuth stores the verified token subject.
	ctxKeySubject = "userID"

	defaultBucketTTL = 10 * time.Minute
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyBySubjectOrIP keys admin callers by their token subject and everyone
// else by client address. Keys are namespaced ("admin:ops", "ip:203.0.113.7")
// so the two spaces never collide.
func KeyBySubjectOrIP() keyFunc {
	return func(c *gin.Context) string {
		if s := c.GetString(ctxKeySubject); s != "" {
			return "admin:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn keyFunc
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst. A burst below one is raised to one.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		ttl:     defaultBucketTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// bucketFor returns the limiter for key. Buckets idle for at least ttl are
// dropped once per ttl, before the lookup, so a stale key starts fresh.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lastSweep.IsZero() {
		rl.lastSweep = now
	}
	if now.Sub(rl.lastSweep) >= rl.ttl {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether VerifySignature already authenticated this
// request as a platform delivery.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler enforces the limit. Rejected requests get 429 with the standard
// error envelope and a Retry-After rounded up to whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		lim := rl.bucketFor(key)
		now := rl.now()
		if lim.AllowN(now, 1) {
			c.Next()
			return
		}

		ns, _, _ := strings.Cut(key, ":")
		rateLimited.WithLabelValues(ns).Inc()

		c.Header("Retry-After", retryAfter(lim, now))
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}

// retryAfter estimates when the next token is available without consuming it.
func retryAfter(lim *rate.Limiter, now time.Time) string {
	if lim.Limit() <= 0 {
		return "60"
	}
	missing := 1 - lim.TokensAt(now)
	secs := math.Ceil(missing / float64(lim.Limit()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(int(secs))
}
