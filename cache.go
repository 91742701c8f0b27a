package suggest

import "sync"

const defaultCacheCapacity = 1000

// resultCache memoizes full query results keyed by the request checksum. It
// is bounded and insert-only: once full, further misses are simply not
// cached. Any catalog mutation clears it wholesale.
//
// The cache carries its own lock so that clearing is atomic with respect to
// concurrent hits.
type resultCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[uint64]*Result
	hits     uint64
	misses   uint64
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &resultCache{
		capacity: capacity,
		entries:  make(map[uint64]*Result),
	}
}

// Get returns the cached result for key, flagged as a cache hit. The stored
// result is never mutated; hits share the suggestion slice but own their
// envelope.
func (c *resultCache) Get(key uint64) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	hit := *entry
	hit.CacheHit = true
	return &hit, true
}

func (c *resultCache) Put(key uint64, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.capacity {
		if _, ok := c.entries[key]; !ok {
			return
		}
	}
	c.entries[key] = result
}

func (c *resultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*Result)
}

func (c *resultCache) Stats() (hits, misses uint64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}
