package cache

import "sync"

// EvictFunc is invoked for every entry that leaves the cache through
// eviction, Delete, Trim or Clear. It runs with the cache lock released.
type EvictFunc[K comparable, V any] func(key K, value V)

// Cache is a generic thread-safe LRU cache.
// A capacity of 0 means unbounded: entries only leave through Delete,
// Trim or Clear.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*cacheEntry[K, V]
	lru      *lruList[K]
	capacity int
	onEvict  EvictFunc[K, V]

	hits      uint64
	misses    uint64
	evictions uint64
}

// cacheEntry holds a cached value with its LRU node.
type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// New creates a new cache with the given capacity.
// onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V]),
		lru:      newLRUList[K](),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(entry.node)
	c.hits++
	return entry.value, true
}

// Peek retrieves a value without touching its LRU position or statistics.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value. If the cache is bounded and exceeds its capacity,
// least recently used entries are evicted.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		existing.value = value
		c.lru.MoveToFront(existing.node)
		c.mu.Unlock()
		return
	}

	c.entries[key] = &cacheEntry[K, V]{
		value: value,
		node:  c.lru.PushFront(key),
	}
	var out []evicted[K, V]
	if c.capacity > 0 {
		out = c.trimLocked(c.capacity)
	}
	c.mu.Unlock()

	c.notify(out)
}

// Delete removes an entry. Returns true if the entry was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.lru.Remove(entry.node)
	delete(c.entries, key)
	c.mu.Unlock()

	c.notify([]evicted[K, V]{{key: key, value: entry.value}})
	return true
}

// DeleteFunc removes every entry for which match returns true.
// Returns the number of removed entries.
func (c *Cache[K, V]) DeleteFunc(match func(key K, value V) bool) int {
	c.mu.Lock()
	var out []evicted[K, V]
	for key, entry := range c.entries {
		if match(key, entry.value) {
			c.lru.Remove(entry.node)
			delete(c.entries, key)
			out = append(out, evicted[K, V]{key: key, value: entry.value})
		}
	}
	c.mu.Unlock()

	c.notify(out)
	return len(out)
}

// Trim evicts least recently used entries until at most max remain.
// Returns the number of evicted entries.
func (c *Cache[K, V]) Trim(max int) int {
	if max < 0 {
		max = 0
	}
	c.mu.Lock()
	out := c.trimLocked(max)
	c.mu.Unlock()

	c.notify(out)
	return len(out)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	out := make([]evicted[K, V], 0, len(c.entries))
	for key, entry := range c.entries {
		out = append(out, evicted[K, V]{key: key, value: entry.value})
	}
	c.entries = make(map[K]*cacheEntry[K, V])
	c.lru.Clear()
	c.mu.Unlock()

	c.notify(out)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured capacity (0 = unbounded).
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Evictions: c.evictions,
	}
}

// trimLocked removes LRU entries until len <= max. Caller must hold c.mu.
func (c *Cache[K, V]) trimLocked(max int) []evicted[K, V] {
	var out []evicted[K, V]
	for len(c.entries) > max {
		key, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		entry := c.entries[key]
		delete(c.entries, key)
		c.evictions++
		out = append(out, evicted[K, V]{key: key, value: entry.value})
	}
	return out
}

func (c *Cache[K, V]) notify(out []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the configured capacity (0 = unbounded).
	Capacity int
	// Hits is the number of Get hits.
	Hits uint64
	// Misses is the number of Get misses.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when nothing was looked up.
	HitRate float64
	// Evictions counts entries removed by capacity or Trim.
	Evictions uint64
}
