// internal/condition/cache.go
package condition

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

/*
 * Compiled condition cache.
 *
 * Keyed by the exact condition text (no trimming or normalization), so two
 * spellings of the same expression are two entries. Entries are immutable
 * trees and are shared freely between rules and goroutines.
 *
 * Reads take the RLock fast path. A miss goes through singleflight so
 * concurrent first compiles of one text run Compile once and every caller
 * receives the same tree. Failed compiles are not stored; the next call
 * retries and reports the same error.
 *
 * There is no eviction. Growth is bounded by the number of distinct
 * conditions ever registered.
 */

// Cache memoizes Compile per condition text. Safe for concurrent use.
// The zero value is not usable; call NewCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Expression
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats is a point-in-time view of cache activity.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Expression)}
}

// Compile returns the cached tree for text, compiling it on first use.
func (c *Cache) Compile(text string) (Expression, error) {
	if expr, ok := c.lookup(text); ok {
		c.hits.Add(1)
		return expr, nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		// another flight may have stored it between lookup and Do
		if expr, ok := c.lookup(text); ok {
			return expr, nil
		}
		c.misses.Add(1)
		expr, err := Compile(text)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[text] = expr
		c.mu.Unlock()
		return expr, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Expression), nil
}

func (c *Cache) lookup(text string) (Expression, bool) {
	c.mu.RLock()
	expr, ok := c.entries[text]
	c.mu.RUnlock()
	return expr, ok
}

// Len returns the number of cached conditions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns entry count and hit/miss counters.
// Misses count actual compilations, including failed ones.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
