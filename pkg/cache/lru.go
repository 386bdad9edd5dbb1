// Package cache provides the LRU used to memoize compiles.
package cache

import (
	"sync"
	"sync/atomic"
)

// entry is a doubly-linked list node holding a key-value pair.
type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
	prev  *entry[K, V]
	next  *entry[K, V]
}

// LRU is a thread-safe generic least-recently-used cache bounded by entry
// count, total size, or both.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	head    *entry[K, V] // Most recently used.
	tail    *entry[K, V] // Least recently used.

	maxEntries int
	maxSize    int64
	curSize    int64
	sizeFunc   func(V) int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Option configures an LRU.
type Option[K comparable, V any] func(*LRU[K, V])

// WithMaxEntries bounds the number of entries.
func WithMaxEntries[K comparable, V any](n int) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.maxEntries = n
	}
}

// WithMaxBytes bounds the total size of the values as reported by sizeFunc.
func WithMaxBytes[K comparable, V any](maxBytes int64, sizeFunc func(V) int64) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.maxSize = maxBytes
		c.sizeFunc = sizeFunc
	}
}

// NewLRU creates a cache. At least one of WithMaxEntries or WithMaxBytes is
// required; otherwise NewLRU panics.
func NewLRU[K comparable, V any](opts ...Option[K, V]) *LRU[K, V] {
	c := &LRU[K, V]{
		entries: make(map[K]*entry[K, V]),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxEntries <= 0 && c.maxSize <= 0 {
		panic("cache: at least one capacity limit (WithMaxEntries or WithMaxBytes) is required")
	}

	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		var zero V

		return zero, false
	}

	c.hits.Add(1)
	c.moveToFront(ent)

	return ent.value, true
}

// Put adds or updates key. A value larger than the whole cache is skipped.
func (c *LRU[K, V]) Put(key K, value V) {
	size := c.valueSize(value)
	if c.maxSize > 0 && size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.curSize += size - ent.size
		ent.value = value
		ent.size = size
		c.moveToFront(ent)
		c.evictUntilFits(0, false)

		return
	}

	c.evictUntilFits(size, true)

	ent := &entry[K, V]{key: key, value: value, size: size}
	c.entries[key] = ent
	c.curSize += size
	c.addToFront(ent)
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear removes every entry. Counters are kept.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.head = nil
	c.tail = nil
	c.curSize = 0
}

// Stats returns a snapshot of the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.curSize,
		MaxSize:     c.maxSize,
	}
}

// CacheHits returns the number of hits.
func (c *LRU[K, V]) CacheHits() int64 { return c.hits.Load() }

// CacheMisses returns the number of misses.
func (c *LRU[K, V]) CacheMisses() int64 { return c.misses.Load() }

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns hits over lookups, 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

func (c *LRU[K, V]) valueSize(value V) int64 {
	if c.sizeFunc != nil {
		return c.sizeFunc(value)
	}

	return 1
}

// evictUntilFits drops tail entries until size more bytes, and one more
// entry when adding, fit.
func (c *LRU[K, V]) evictUntilFits(size int64, adding bool) {
	for c.tail != nil {
		overCount := c.maxEntries > 0 && adding && len(c.entries) >= c.maxEntries
		overSize := c.maxSize > 0 && c.curSize+size > c.maxSize

		if !overCount && !overSize {
			return
		}

		victim := c.tail
		c.removeFromList(victim)
		delete(c.entries, victim.key)
		c.curSize -= victim.size
		c.evictions.Add(1)
	}
}

func (c *LRU[K, V]) moveToFront(ent *entry[K, V]) {
	if ent == c.head {
		return
	}

	c.removeFromList(ent)
	c.addToFront(ent)
}

func (c *LRU[K, V]) addToFront(ent *entry[K, V]) {
	ent.prev = nil
	ent.next = c.head

	if c.head != nil {
		c.head.prev = ent
	}

	c.head = ent

	if c.tail == nil {
		c.tail = ent
	}
}

func (c *LRU[K, V]) removeFromList(ent *entry[K, V]) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.head = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.tail = ent.prev
	}

	ent.prev, ent.next = nil, nil
}
