// Package catalog caches the item master so invoice lines can show item
// names without a remote call per line.
package catalog

import (
	"context"
	"sync"
	"time"
)

// Loader fetches the value for a key on a cache miss.
type Loader[K comparable, V any] interface {
	Load(ctx context.Context, key K) (V, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) { return f(ctx, key) }

// Cache wraps a Loader with TTL-based caching. Errors are not cached.
type Cache[K comparable, V any] struct {
	inner Loader[K, V]
	cache map[K]*cacheEntry[V]
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCache wraps a loader with caching.
func NewCache[K comparable, V any](inner Loader[K, V], ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		inner: inner,
		cache: make(map[K]*cacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the value for key, loading it when absent or expired.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	v, err := c.inner.Load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.cache[key] = &cacheEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops key from the cache.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}
