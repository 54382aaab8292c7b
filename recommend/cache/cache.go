// Package cache provides an explicit-lifecycle memoization cache for
// expensive external loads (candidate sets, default recommendation sets).
//
// Entries never expire on their own: staleness between explicit writes is
// acceptable, and automatic expiry would only multiply calls to the costly
// backing loaders. Invalidation is the single mutation entry point.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes loader results by key. It is safe for concurrent use.
//
// Concurrent callers for a cold key are collapsed into a single loader
// execution. A loader either fully succeeds and its value is cached, or
// fails and the entry stays absent; a partially populated value is never
// observable.
type Cache struct {
	group singleflight.Group

	mu         sync.RWMutex
	entries    map[string]any
	generation map[string]uint64
	epoch      uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cumulative hit/miss counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:    make(map[string]any),
		generation: make(map[string]uint64),
	}
}

// GetOrLoad returns the cached value for key, running loader on a cold key.
// The loader result is stored only if the key was not invalidated while the
// load was in flight, so a read after invalidation always reflects fresh data.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	gen := c.generation[key]
	epoch := c.epoch
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return value, nil
	}
	c.misses.Add(1)

	value, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have completed the load while this one was
		// queued on the flight group.
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// The per-key generation misses keys being loaded for the first
		// time, so InvalidateAll is tracked by the cache-wide epoch.
		if c.generation[key] == gen && c.epoch == epoch {
			c.entries[key] = loaded
		}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Get returns the cached value for key without loading.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Invalidate drops the entry for key. The next GetOrLoad re-runs the loader.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.generation[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll drops every entry. Loads in flight when it runs, including
// first-time loads of keys never cached before, are discarded on completion.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.epoch++
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	clear(c.entries)
	c.mu.Unlock()
	for _, key := range keys {
		c.group.Forget(key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cumulative hit/miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// GetOrLoad is the typed wrapper around Cache.GetOrLoad.
func GetOrLoad[V any](ctx context.Context, c *Cache, key string, loader func(context.Context) (V, error)) (V, error) {
	value, err := c.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	typed, ok := value.(V)
	if !ok {
		var zero V
		return zero, errors.Errorf("cache: unexpected value type %T for key %q", value, key)
	}
	return typed, nil
}
