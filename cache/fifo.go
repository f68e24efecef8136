// Package cache provides a bounded, insertion-ordered map.
package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the bound used when a non-positive capacity is given.
const DefaultCapacity = 100

// FIFO is a bounded map that evicts entries in insertion order.
// Reads do not refresh an entry's position. Safe for concurrent use.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is oldest
	entries  map[K]*list.Element
	onEvict  func(K)
}

type fifoEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewFIFO returns an empty cache holding at most capacity entries.
func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FIFO[K, V]{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[K]*list.Element, capacity),
	}
}

// OnEvict registers a callback invoked with each evicted key.
// The callback runs with the cache lock held and must not call back into the cache.
func (c *FIFO[K, V]) OnEvict(fn func(K)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value stored for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		return el.Value.(*fifoEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key. Updating an existing key keeps its original
// position. Inserting past capacity evicts the oldest entry.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*fifoEntry[K, V]).value = value
		return
	}

	c.entries[key] = c.order.PushBack(&fifoEntry[K, V]{key: key, value: value})
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		evicted := oldest.Value.(*fifoEntry[K, V]).key
		delete(c.entries, evicted)
		if c.onEvict != nil {
			c.onEvict(evicted)
		}
	}
}

// Len returns the number of cached entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the cache bound.
func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from oldest to newest.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*fifoEntry[K, V]).key)
	}
	return keys
}

// Clear removes every entry.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[K]*list.Element, c.capacity)
}
