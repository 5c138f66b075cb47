// Package dedup provides the bounded set of DOM element ids that have already
// been forwarded. Eviction is strictly by insertion order.
package dedup

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the number of ids remembered before the oldest is evicted.
const DefaultCapacity = 1000

// SeenCache is an insertion-ordered set with FIFO eviction. Lookups and
// evictions are O(1). The zero value is not usable; call NewSeenCache.
type SeenCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = oldest
	index    map[string]*list.Element
}

// NewSeenCache returns an empty cache. A non-positive capacity selects
// DefaultCapacity.
func NewSeenCache(capacity int) *SeenCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SeenCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity+1),
	}
}

// Seen reports whether id is currently remembered.
func (c *SeenCache) Seen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[id]
	return ok
}

// Add remembers id. Adding an id that is already present does not move it.
// When the cache grows past capacity the oldest id is evicted and returned.
func (c *SeenCache) Add(id string) (evicted string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, present := c.index[id]; present {
		return "", false
	}
	c.index[id] = c.order.PushBack(id)
	if c.order.Len() <= c.capacity {
		return "", false
	}
	front := c.order.Front()
	c.order.Remove(front)
	old := front.Value.(string)
	delete(c.index, old)
	return old, true
}

// Len returns the number of remembered ids.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured bound.
func (c *SeenCache) Capacity() int { return c.capacity }
