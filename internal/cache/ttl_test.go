package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestTTL_ExpiresEntries(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string](5*time.Second, WithClock(clk.Now))

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	clk.Advance(4 * time.Second)
	_, ok = c.Get("k")
	require.True(t, ok, "entry should still be fresh")

	clk.Advance(time.Second)
	_, ok = c.Get("k")
	require.False(t, ok, "entry should expire exactly at ttl")
	require.Equal(t, 0, c.Len())
}

func TestTTL_GetOrLoad_HitMissAndErrorsNotCached(t *testing.T) {
	c := New[int](time.Minute)
	var calls int32

	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}
	v, hit, err := c.GetOrLoad("a", load)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 42, v)

	v, hit, err = c.GetOrLoad("a", load)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 42, v)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	boom := errors.New("boom")
	_, _, err = c.GetOrLoad("b", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	_, ok := c.Get("b")
	require.False(t, ok, "errors must not be cached")
}

func TestTTL_Disabled_AlwaysLoads(t *testing.T) {
	c := New[int](0)
	require.False(t, c.Enabled())
	var calls int
	for i := 0; i < 3; i++ {
		_, hit, err := c.GetOrLoad("k", func() (int, error) { calls++; return calls, nil })
		require.NoError(t, err)
		require.False(t, hit)
	}
	require.Equal(t, 3, calls)
	c.Set("k", 1)
	require.Equal(t, 0, c.Len())
}

func TestTTL_CoalescesConcurrentMisses(t *testing.T) {
	c := New[int](time.Minute)
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 7, nil
			})
			require.NoError(t, err)
			require.Equal(t, 7, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	_, ok := c.Get("k")
	require.True(t, ok)
}

func TestTTL_InvalidateDuringLoad_DoesNotStoreStaleValue(t *testing.T) {
	c := New[string](time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		v, _, err := c.GetOrLoad("rows", func() (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		require.NoError(t, err)
		require.Equal(t, "stale", v)
	}()

	<-started
	c.Invalidate("rows") // a write lands while the read is in flight
	close(release)
	<-done

	_, ok := c.Get("rows")
	require.False(t, ok, "value loaded before invalidation must not be cached")

	v, hit, err := c.GetOrLoad("rows", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "fresh", v)
}

func TestTTL_InvalidatePrefixAndPurge(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("book1|A:D", 1)
	c.Set("book1|A2:B3", 2)
	c.Set("book2|A:D", 3)

	c.InvalidatePrefix("book1|")
	_, ok := c.Get("book1|A:D")
	require.False(t, ok)
	_, ok = c.Get("book1|A2:B3")
	require.False(t, ok)
	v, ok := c.Get("book2|A:D")
	require.True(t, ok)
	require.Equal(t, 3, v)

	c.Purge()
	require.Equal(t, 0, c.Len())
}
