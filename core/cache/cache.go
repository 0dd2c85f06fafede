// Package cache provides the memoising cache behind per-session lookups such
// as the writing-system to encoding-converter cache.
package cache

import "sync"

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Cache is a thread-safe, append-only cache. Entries live as long as the
// cache; a cache is meant to be scoped to one session.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	stats   Stats
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

func (c *Cache[K, V]) get(key K) (V, bool) {
	v, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return v, false
	}
	c.stats.Hits++
	return v, true
}

func (c *Cache[K, V]) put(key K, value V) {
	c.entries[key] = value
}

// GetOrLoad returns the cached value for key, calling load to populate it on
// a miss. Load errors are returned and nothing is cached.
// The lock is held while load runs, so concurrent callers load a key once.
func (c *Cache[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.put(key, v)
	return v, nil
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = len(c.entries)
	return s
}
