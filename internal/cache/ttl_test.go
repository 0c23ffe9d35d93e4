package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
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

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	c := New[string]()
	c.Set("k", "first", time.Minute)
	c.Set("k", "second", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, c.Len())
}

func TestExpiryIsLazyAndFreesSlot(t *testing.T) {
	clk := newFakeClock()
	c := New[string](WithClock(clk.Now))

	c.Set("k", "v", time.Second)
	clk.Advance(time.Second)
	assert.True(t, c.Has("k"), "entry is still valid at exactly expiresAt")

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, c.Len(), "nothing removes the entry before it is read")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("k"))
}

func TestHasIgnoresExpiredEntries(t *testing.T) {
	clk := newFakeClock()
	c := New[int](WithClock(clk.Now))

	c.Set("k", 1, 2*time.Second)
	clk.Advance(3 * time.Second)

	assert.False(t, c.Has("k"))
}

func TestDefaultTTL(t *testing.T) {
	clk := newFakeClock()
	c := New[string](WithClock(clk.Now), WithDefaultTTL(10*time.Second))

	c.Set("k", "v", 0)
	clk.Advance(9 * time.Second)
	assert.True(t, c.Has("k"))

	clk.Advance(2 * time.Second)
	assert.False(t, c.Has("k"))
}

func TestCleanupThresholdRemovesOnlyExpired(t *testing.T) {
	clk := newFakeClock()
	c := New[string](WithClock(clk.Now), WithCleanupThreshold(3))

	c.Set("old-1", "v", time.Second)
	c.Set("old-2", "v", time.Second)
	clk.Advance(2 * time.Second)
	c.Set("live-1", "v", time.Hour)
	assert.Equal(t, 3, c.Len())

	// Fourth entry crosses the threshold and sweeps the two expired ones.
	c.Set("live-2", "v", time.Hour)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("live-1"))
	assert.True(t, c.Has("live-2"))
}

func TestCleanupThresholdDoesNotEvictLiveEntries(t *testing.T) {
	c := New[string](WithCleanupThreshold(5))
	for i := range 20 {
		c.Set(fmt.Sprintf("k%d", i), "v", time.Hour)
	}
	assert.Equal(t, 20, c.Len())
}

func TestClear(t *testing.T) {
	c := New[string]()
	c.Set("a", "1", 0)
	c.Set("b", "2", 0)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("a"))
}

func TestRemoveExpired(t *testing.T) {
	clk := newFakeClock()
	c := New[string](WithClock(clk.Now))
	c.Set("a", "1", time.Second)
	c.Set("b", "2", time.Minute)
	clk.Advance(5 * time.Second)

	assert.Equal(t, 1, c.RemoveExpired())
	assert.Equal(t, 1, c.Len())
	assert.EqualValues(t, 1, c.Stats().Expired)
}

func TestSweeperRemovesUnreadExpiredEntries(t *testing.T) {
	clk := newFakeClock()
	c := New[string](WithClock(clk.Now))
	c.Set("stale", "1", time.Second)
	c.Set("live", "2", time.Hour)
	clk.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.Has("live"))
	assert.EqualValues(t, 1, c.Stats().Expired)
}

func TestStats(t *testing.T) {
	c := New[string]()
	c.Set("h", "v", 0)
	c.Get("h")
	c.Get("nope")

	s := c.Stats()
	assert.Equal(t, Stats{Entries: 1, Hits: 1, Misses: 1}, s)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](WithCleanupThreshold(10))
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("k%d", i%25)
				c.Set(key, g, time.Minute)
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 25, c.Len())
}
