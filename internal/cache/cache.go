// Package cache provides a generic in-memory key/value store with per-entry
// expiration and a bounded capacity. It is used to memoize idempotent
// source-control reads so repeated navigation does not re-issue identical
// network requests within the cache window.
package cache

import (
	"context"
	"sync"
	"time"
)

// entry is an immutable snapshot of one cached value. Entries are replaced
// wholesale on re-set, never mutated in place.
type entry[V any] struct {
	data      V
	timestamp time.Time
	ttl       time.Duration
}

// expired reports whether the entry's TTL has lapsed at time now.
// A TTL of zero means the entry never time-expires; it is only removed by
// explicit deletion or capacity eviction.
func (e entry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.timestamp) > e.ttl
}

// Cache is a bounded TTL cache keyed by opaque strings. When an insert would
// exceed the capacity, the oldest-inserted surviving key is evicted (FIFO, not
// LRU). All operations are safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	order      []string // keys in first-insertion order, drives FIFO eviction
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock overrides the time source, letting tests advance time
// deterministically.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a cache with the given default TTL and maximum entry count.
// A maxSize of zero or less disables the capacity bound.
func New[V any](defaultTTL time.Duration, maxSize int, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key, if present and unexpired. An
// expired entry is deleted on the way out (lazy eviction).
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(c.now()) {
		c.remove(key)
		var zero V
		return zero, false
	}
	return e.data, true
}

// Set stores value under key. The optional ttl overrides the cache default;
// pass a ttl of zero for an entry that never time-expires. If the cache is at
// capacity and key is not already present, the oldest-inserted surviving key
// is evicted first. Overwriting an existing key keeps its insertion position.
func (c *Cache[V]) Set(key string, value V, ttl ...time.Duration) {
	entryTTL := c.defaultTTL
	if len(ttl) > 0 {
		entryTTL = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.entries[key]
	if !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	if !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[V]{
		data:      value,
		timestamp: c.now(),
		ttl:       entryTTL,
	}
}

// Has reports whether key holds an unexpired value. It shares Get's expiry
// semantics rather than checking raw presence.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	c.remove(key)
	return true
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
	c.order = c.order[:0]
}

// Cleanup sweeps the whole cache, removes every expired entry and returns the
// removed count. It is intended for periodic maintenance; Get and Set never
// trigger a bulk sweep on their own.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for _, key := range append([]string(nil), c.order...) {
		if c.entries[key].expired(now) {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// GetOrSet returns the cached value for key if present and unexpired;
// otherwise it invokes compute, stores the result under ttl (or the default)
// and returns it. Concurrent callers racing on a cold key are not
// deduplicated: both invoke compute and the second write wins. That is
// acceptable for idempotent reads, which is all this cache fronts.
func (c *Cache[V]) GetOrSet(ctx context.Context, key string, compute func(context.Context) (V, error), ttl ...time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v, ttl...)
	return v, nil
}

// Stats is a point-in-time diagnostic snapshot of the cache.
type Stats struct {
	TotalEntries   int           `json:"totalEntries"`
	ValidEntries   int           `json:"validEntries"`
	ExpiredEntries int           `json:"expiredEntries"`
	MaxSize        int           `json:"maxSize"`
	DefaultTTL     time.Duration `json:"defaultTTL"`
}

// GetStats returns cache statistics. ExpiredEntries counts entries whose TTL
// has lapsed but that have not yet been lazily swept.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{
		TotalEntries: len(c.entries),
		MaxSize:      c.maxSize,
		DefaultTTL:   c.defaultTTL,
	}
	for _, e := range c.entries {
		if e.expired(now) {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}

// remove deletes key from the entry map and the insertion-order list.
// Callers must hold c.mu.
func (c *Cache[V]) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// evictOldest drops the oldest-inserted surviving key. Callers must hold c.mu.
func (c *Cache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	c.remove(c.order[0])
}
