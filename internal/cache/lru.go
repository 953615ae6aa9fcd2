// Package cache provides a fixed-capacity least-recently-used cache.
//
// The cache is not safe for concurrent use. Callers that share one across
// goroutines must serialise access themselves.
package cache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Stats holds the running counters of a cache.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// LRU is a generic key/value store that evicts the least recently used entry
// once capacity is reached. Recency is logical, not wall-clock: every Get hit
// and Set moves the key to the front of simplelru's list, so the list order is
// the total order of accesses and the back of the list is evicted first.
type LRU[K comparable, V any] struct {
	capacity int
	items    *simplelru.LRU[K, V] // nil when capacity is zero
	stats    Stats
}

// New creates a cache holding at most capacity entries. A capacity of zero or
// less disables caching: Set does nothing and Get always misses.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	c := &LRU[K, V]{capacity: max(capacity, 0)}
	if c.capacity > 0 {
		// NewLRU only fails for a non-positive size.
		c.items, _ = simplelru.NewLRU[K, V](c.capacity, nil)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if c.items != nil {
		if v, ok := c.items.Get(key); ok {
			c.stats.Hits++
			return v, true
		}
	}
	c.stats.Misses++
	var zero V
	return zero, false
}

// Set inserts or updates key and marks it most recently used. Inserting a new
// key into a full cache evicts the least recently used entry first.
func (c *LRU[K, V]) Set(key K, value V) {
	if c.items == nil {
		return
	}
	if evicted := c.items.Add(key, value); evicted {
		c.stats.Evictions++
	}
}

// Has reports whether key is cached without touching its recency.
func (c *LRU[K, V]) Has(key K) bool {
	return c.items != nil && c.items.Contains(key)
}

// Delete removes key and reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	return c.items != nil && c.items.Remove(key)
}

// Clear drops every entry. Counters are kept.
func (c *LRU[K, V]) Clear() {
	if c.items != nil {
		c.items.Purge()
	}
}

// Len returns the number of live entries.
func (c *LRU[K, V]) Len() int {
	if c.items == nil {
		return 0
	}
	return c.items.Len()
}

// Capacity returns the configured maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from least to most recently used.
func (c *LRU[K, V]) Keys() []K {
	if c.items == nil {
		return nil
	}
	return c.items.Keys()
}

// Stats returns a copy of the hit, miss and eviction counters.
func (c *LRU[K, V]) Stats() Stats {
	return c.stats
}
