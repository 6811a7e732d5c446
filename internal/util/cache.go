package util

import (
	"container/list"
	"sync"
)

type (
	// LRUCache is a bounded, thread-safe cache that evicts the least
	// recently used entry
	LRUCache[T any] struct {
		cache   map[string]*list.Element
		lru     *list.List
		maxSize int
		mu      sync.Mutex
	}

	// Constructor builds a value on a cache miss
	Constructor[T any] func() (T, error)

	cacheEntry[T any] struct {
		value T
		key   string
	}
)

// NewLRUCache creates a cache holding at most maxSize entries
func NewLRUCache[T any](maxSize int) *LRUCache[T] {
	return &LRUCache[T]{
		cache:   map[string]*list.Element{},
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached value for key, building and storing it with create
// on a miss. Failed constructions are not cached
func (c *LRUCache[T]) Get(key string, create Constructor[T]) (T, error) {
	c.mu.Lock()
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		c.mu.Unlock()
		return elem.Value.(*cacheEntry[T]).value, nil
	}
	c.mu.Unlock()

	value, err := create()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry[T]).value, nil
	}

	elem := c.lru.PushFront(&cacheEntry[T]{key: key, value: value})
	c.cache[key] = elem
	if c.lru.Len() > c.maxSize {
		c.evictLast()
	}
	return value, nil
}

// Purge drops every entry
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = map[string]*list.Element{}
	c.lru.Init()
}

// Len returns the number of cached entries
func (c *LRUCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *LRUCache[T]) evictLast() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	c.lru.Remove(back)
	delete(c.cache, back.Value.(*cacheEntry[T]).key)
}
