package postgrest

import (
	"sync"
	"time"
)

// catalogCache keeps one catalog listing for a TTL. Catalogs change
// rarely, so every calendar render does not need a round trip.
type catalogCache[T any] struct {
	mu        sync.RWMutex
	rows      []T
	fetchedAt time.Time
	ttl       time.Duration
}

func newCatalogCache[T any](ttl time.Duration) *catalogCache[T] {
	return &catalogCache[T]{ttl: ttl}
}

func (c *catalogCache[T]) Get() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rows == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]T, len(c.rows))
	copy(result, c.rows)
	return result
}

func (c *catalogCache[T]) Set(rows []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = make([]T, len(rows))
	copy(c.rows, rows)
	c.fetchedAt = time.Now()
}

func (c *catalogCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = nil
}
