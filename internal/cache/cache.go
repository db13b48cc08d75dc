package cache

import (
	"sync"
	"time"
)

// entry is a single cached payload with its expiry deadline.
// Entries are independent: whole-value writes, no partial mutation.
type entry struct {
	value     map[string]interface{}
	expiresAt time.Time
}

// Cache is an in-memory TTL-bounded memo cache keyed by request
// fingerprint. Expiry is lazy: stale entries are treated as misses and
// removed on next access, no background sweep runs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   int64
	misses int64
	sets   int64
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or nil and false on a miss.
// An expired entry counts as a miss and is evicted.
func (c *Cache) Get(key string) (map[string]interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have
		// refreshed the entry since the read above.
		if cur, still := c.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl disables
// caching for this write: nothing is stored.
func (c *Cache) Put(key string, value map[string]interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.sets++
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports hit/miss/set counters for monitoring.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"hits":     c.hits,
		"misses":   c.misses,
		"sets":     c.sets,
		"entries":  len(c.entries),
		"hit_rate": hitRate,
	}
}
