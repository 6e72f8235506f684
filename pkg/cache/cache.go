// Package cache provides a weighted least recently used cache.
package cache

import (
	"sync"
)

// Cache stores values under string keys up to a total weight budget. When an
// insert exceeds the budget, the least recently used entries are evicted.
type Cache[V any] interface {
	// Insert stores value under key, replacing any existing entry
	Insert(key string, value V, weight int)

	// Retrieve returns the value stored under key and marks it as recently
	// used
	Retrieve(key string) (V, bool)

	// Weight is the combined weight of every stored entry
	Weight() int

	// Budget is the maximum combined weight
	Budget() int

	Len() int
	Clear()
}

type node[V any] struct {
	next   *node[V]
	prev   *node[V]
	key    string
	value  V
	weight int
}

type cache[V any] struct {
	mu sync.Mutex

	head   *node[V]
	tail   *node[V]
	lookup map[string]*node[V]
	weight int
	budget int
}

// New returns an empty cache holding at most budget weight
func New[V any](budget int) Cache[V] {
	return &cache[V]{
		lookup: make(map[string]*node[V]),
		budget: budget,
	}
}

// Insert implements Cache.Insert
func (c *cache[V]) Insert(key string, value V, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lookup[key]; ok {
		c.unlink(existing)
		c.weight -= existing.weight
		delete(c.lookup, key)
	}

	if weight > c.budget {
		return
	}

	n := &node[V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		c.weight -= evicted.weight
		delete(c.lookup, evicted.key)
	}
}

// Retrieve implements Cache.Retrieve
func (c *cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup[key]
	if !ok {
		var zero V
		return zero, false
	}

	if n != c.head {
		c.unlink(n)
		c.pushFront(n)
	}
	return n.value, true
}

// Weight implements Cache.Weight
func (c *cache[V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

// Budget implements Cache.Budget
func (c *cache[V]) Budget() int {
	return c.budget
}

// Len implements Cache.Len
func (c *cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lookup)
}

// Clear implements Cache.Clear
func (c *cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*node[V])
	c.weight = 0
}

func (c *cache[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *cache[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}
