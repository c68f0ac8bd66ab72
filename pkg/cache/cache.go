package cache

import (
	"sync"
	"time"
)

// DefaultTTL applies when a cache is built with a zero TTL.
const DefaultTTL = 5 * time.Minute

type entry[T any] struct {
	value     T
	timestamp time.Time
}

// Cache is a TTL keyed store used for resolved threads, first message pages
// and identity lookups.
// Writers that mutate a cached object must Invalidate its key before returning.
type Cache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
}

// New create a Cache with the given TTL (DefaultTTL when zero).
func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the fresh value for key, if any.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if time.Since(e.timestamp) > c.ttl {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh timestamp.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, timestamp: time.Now()}
}

// Invalidate drops a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}

// Len reports the number of live entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
