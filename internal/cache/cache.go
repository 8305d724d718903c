package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is an in-memory cache whose entries expire a fixed duration after
// they were stored. Expired entries are swept lazily on every access, so a
// cache that stops being read eventually holds only garbage until the next
// Sweep call. State is process-local and lost on restart.
type TTL[K comparable, V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[K]entry[V]
}

type Option[K comparable, V any] func(*TTL[K, V])

// WithClock overrides the time source, for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *TTL[K, V]) {
		c.now = now
	}
}

func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *TTL[K, V] {
	c := &TTL[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key, sweeping expired entries first.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the current timestamp.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Sweep drops all expired entries and returns how many were removed.
func (c *TTL[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[K, V]) sweepLocked() int {
	if c.ttl <= 0 {
		return 0
	}
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
