// Package nearcache implements the bounded in-process cache that sits in
// front of the Redis transport. It is generalized from the teacher
// library's yacache/memory.go cleanup-goroutine pattern (ticker-driven
// TTL sweep plus a weak self-reference so the sweeper does not keep the
// cache alive after callers drop it) to flat byte-slice storage with an
// LRU eviction policy applied once the cache is at capacity.
package nearcache

import (
	"container/list"
	"sync"
	"time"
	"weak"
)

// Stats is a snapshot of near-cache activity, surfaced at /stats and
// mirrored into Prometheus gauges.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Deletes   uint64
	Evictions uint64
}

type entry struct {
	key      string
	value    []byte
	expireAt time.Time
	elem     *list.Element
}

// Cache is a bounded, TTL- and LRU-evicted key-value store. It never
// returns an expired entry and is safe for concurrent use.
type Cache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	index map[string]*entry
	order *list.List // front = most recently used

	hits, misses, sets, deletes, evictions uint64

	stopCleanup chan struct{}
}

// New returns a Cache bounded to capacity entries, each living for ttl
// (zero means entries never expire on their own, though LRU eviction
// still applies once the cache is full).
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}

	c := &Cache{
		capacity:    capacity,
		ttl:         ttl,
		index:       make(map[string]*entry, capacity),
		order:       list.New(),
		stopCleanup: make(chan struct{}),
	}

	if ttl > 0 {
		go cleanup(weak.Make(c), ttl)
	}

	return c
}

// cleanup periodically sweeps expired entries. It holds only a weak
// reference to the cache so a caller that drops the Cache does not leak
// this goroutine forever; once the cache is collected the next tick
// simply finds nothing to resolve and exits.
func cleanup(ref weak.Pointer[Cache], ttl time.Duration) {
	interval := ttl / 2
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c := ref.Value()
		if c == nil {
			return
		}

		select {
		case <-c.stopCleanup:
			return
		default:
		}

		c.sweep()
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.index {
		if !e.expireAt.IsZero() && now.After(e.expireAt) {
			c.order.Remove(e.elem)
			delete(c.index, key)
			c.evictions++
		}
	}
}

// Set stores value under key, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *Cache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++

	var expireAt time.Time
	if c.ttl > 0 {
		expireAt = time.Now().Add(c.ttl)
	}

	if e, ok := c.index[key]; ok {
		e.value = value
		e.expireAt = expireAt
		c.order.MoveToFront(e.elem)

		return
	}

	if len(c.index) >= c.capacity {
		c.evictOldestLocked()
	}

	e := &entry{key: key, value: value, expireAt: expireAt}
	e.elem = c.order.PushFront(e)
	c.index[key] = e
}

func (c *Cache) evictOldestLocked() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	e, _ := oldest.Value.(*entry)
	c.order.Remove(oldest)
	delete(c.index, e.key)
	c.evictions++
}

// Get returns the value stored under key. It never returns an expired
// entry: an expired hit is treated as, and counted as, a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		c.misses++

		return nil, false
	}

	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		c.order.Remove(e.elem)
		delete(c.index, key)
		c.misses++
		c.evictions++

		return nil, false
	}

	c.order.MoveToFront(e.elem)
	c.hits++

	return e.value, true
}

// Delete removes key, if present. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		return
	}

	c.order.Remove(e.elem)
	delete(c.index, key)
	c.deletes++
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[string]*entry, c.capacity)
	c.order = list.New()
}

// Stats returns a snapshot of cache activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   len(c.index),
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Deletes:   c.deletes,
		Evictions: c.evictions,
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	select {
	case <-c.stopCleanup:
	default:
		close(c.stopCleanup)
	}
}
