// Package cache holds the in-process response cache and its key derivation.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTTL              = time.Hour
	DefaultCleanupThreshold = 100
)

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Stats reports cache performance counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
}

// TTL is an expiring key/value store. Expired entries are removed lazily on read, and in
// bulk once the number of stored entries passes the cleanup threshold. Live entries are
// never evicted, so the store can grow without bound between expiries.
type TTL[V any] struct {
	mu               sync.Mutex
	entries          map[string]entry[V]
	defaultTTL       time.Duration
	cleanupThreshold int
	now              func() time.Time

	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
}

type Option func(*options)

type options struct {
	defaultTTL       time.Duration
	cleanupThreshold int
	now              func() time.Time
}

func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.defaultTTL = d
		}
	}
}

func WithCleanupThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cleanupThreshold = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func New[V any](opts ...Option) *TTL[V] {
	o := options{
		defaultTTL:       DefaultTTL,
		cleanupThreshold: DefaultCleanupThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[V]{
		entries:          make(map[string]entry[V]),
		defaultTTL:       o.defaultTTL,
		cleanupThreshold: o.cleanupThreshold,
		now:              o.now,
	}
}

// Get returns the value while now <= expiresAt. An expired entry is deleted and reported
// as absent.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.expired.Add(1)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key, replacing any previous entry. ttl <= 0 uses the default.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	if len(c.entries) > c.cleanupThreshold {
		c.removeExpiredLocked(now)
	}
}

func (c *TTL[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet removed.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RemoveExpired drops every expired entry and returns how many were removed.
func (c *TTL[V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeExpiredLocked(c.now())
}

func (c *TTL[V]) removeExpiredLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.expired.Add(int64(removed))
	return removed
}

// StartSweeper removes expired entries every interval until ctx is done, so keys that
// are never read again do not linger until the cleanup threshold is crossed.
func (c *TTL[V]) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RemoveExpired()
			}
		}
	}()
}

func (c *TTL[V]) Stats() Stats {
	return Stats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Expired: c.expired.Load(),
	}
}
