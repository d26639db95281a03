// Package cache provides a bounded LRU cache for device objects that must be
// released when they are dropped, such as compiled kernels and pipelines.
//
//	c := cache.New[string, *Pipeline](16, func(_ string, p *Pipeline) { p.Destroy() })
//	p, created, err := c.GetOrCreate("x5", build)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache

import "sync"

// Cache is a thread-safe LRU cache with a hard capacity.
//
// When an insertion exceeds the capacity, the least recently used entry is
// removed and passed to the eviction callback. The callback also runs for
// entries removed by Delete and Purge, always with the cache lock held: it
// must not call back into the cache.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most capacity entries. A capacity of 0 or
// less means unlimited. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(node)
	return node.value, true
}

// Add stores value under key, replacing and releasing any previous value.
func (c *Cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		old := node.value
		node.value = value
		c.order.moveToFront(node)
		c.release(key, old)
		return
	}
	c.insertLocked(key, value)
}

// GetOrCreate returns the cached value for key, or calls create and caches
// its result. created reports whether create ran. A failed create is not
// cached.
//
// create runs with the cache lock held, so concurrent callers for the same
// key never build twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (value V, created bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits++
		c.order.moveToFront(node)
		return node.value, false, nil
	}
	c.misses++

	value, err = create()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.insertLocked(key, value)
	return value, true, nil
}

// Delete removes key, releasing its value. It reports whether key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(node)
	delete(c.entries, key)
	c.release(key, node.value)
	return true
}

// Purge removes and releases every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.order.removeOldest(); node != nil; node = c.order.removeOldest() {
		delete(c.entries, node.key)
		c.release(node.key, node.value)
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// insertLocked adds a new entry and evicts down to capacity.
// Caller must hold c.mu.
func (c *Cache[K, V]) insertLocked(key K, value V) {
	c.entries[key] = c.order.pushFront(key, value)
	for c.capacity > 0 && len(c.entries) > c.capacity {
		node := c.order.removeOldest()
		delete(c.entries, node.key)
		c.evictions++
		c.release(node.key, node.value)
	}
}

func (c *Cache[K, V]) release(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}
