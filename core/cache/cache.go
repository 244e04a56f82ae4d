// Package cache provides a byte-bounded LRU cache and a memoizing image
// loader built on it.
package cache

import (
	"container/list"
	"sync"

	"github.com/FocuswithJustin/docbridge/core/transform"
)

// Stats contains cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Size       int
	TotalBytes int64
}

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// LRU is a thread-safe cache evicting the least recently used entries once
// the summed entry size exceeds its limit.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	maxBytes  int64
	sizeFunc  func(V) int64
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// New creates a cache holding at most maxBytes as measured by sizeFunc.
// A maxBytes of 0 means unbounded.
func New[K comparable, V any](maxBytes int64, sizeFunc func(V) int64) *LRU[K, V] {
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &LRU[K, V]{
		maxBytes:  maxBytes,
		sizeFunc:  sizeFunc,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

// Put stores a value. Values larger than the whole cache are not kept.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.sizeFunc(value)
	if c.maxBytes > 0 && size > c.maxBytes {
		return
	}
	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value, size: size})
	c.stats.TotalBytes += size

	for c.maxBytes > 0 && c.stats.TotalBytes > c.maxBytes {
		c.removeElement(c.evictList.Back())
		c.stats.Evictions++
	}
}

// Remove removes a value from the cache.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	return s
}

func (c *LRU[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.stats.TotalBytes -= e.size
}

// Loader memoizes load so an image referenced several times is fetched
// once. Failed loads are not cached.
func Loader(load transform.Loader, maxBytes int64) transform.Loader {
	c := New[string, []byte](maxBytes, func(b []byte) int64 { return int64(len(b)) })
	return func(url string) ([]byte, error) {
		if data, ok := c.Get(url); ok {
			return data, nil
		}
		data, err := load(url)
		if err != nil {
			return nil, err
		}
		c.Put(url, data)
		return data, nil
	}
}
