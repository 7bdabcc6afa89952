// Package cache provides a small in-process TTL cache with coalesced loads
// and explicit invalidation. It is safe for concurrent use.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL caches values by string key for a fixed duration. Concurrent misses for
// the same key share one load. An invalidation that races with an in-flight
// load wins: the loaded value is returned to its callers but not stored.
type TTL[V any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.Mutex
	items map[string]entry[V]
	epoch uint64
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New returns a cache whose entries live for ttl. A ttl <= 0 disables
// storage: every GetOrLoad calls the loader.
func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &TTL[V]{ttl: ttl, now: o.now, items: make(map[string]entry[V])}
}

// Enabled reports whether entries are retained at all.
func (c *TTL[V]) Enabled() bool { return c.ttl > 0 }

// Get returns a fresh value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *TTL[V]) Set(key string, value V) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key or calls load once for all
// concurrent callers. hit reports whether the value came from the cache.
// Errors are never cached.
func (c *TTL[V]) GetOrLoad(key string, load func() (V, error)) (value V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	if !c.Enabled() {
		v, err := load()
		return v, false, err
	}
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	// Keying the flight by epoch keeps callers that arrive after an
	// invalidation from joining a load that started before it.
	res, err, _ := c.group.Do(key+"#"+strconv.FormatUint(epoch, 10), func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		if c.epoch == epoch {
			c.items[key] = entry[V]{value: v, expires: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Invalidate removes key. In-flight loads started before the call will not
// repopulate the cache.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.epoch++
	c.mu.Unlock()
}

// InvalidatePrefix removes every key starting with prefix.
func (c *TTL[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.epoch++
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.epoch++
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
