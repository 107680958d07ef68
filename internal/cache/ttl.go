package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a bounded key/value cache with a fixed per-entry TTL. When the
// bound is exceeded the entry closest to expiry is evicted. One cache is
// owned by exactly one collector instance; the mutex only guards against
// concurrent API readers.
type TTLCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
}

func NewTTLCache(ttl time.Duration, capacity int) *TTLCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &TTLCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		capacity: capacity,
	}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked(now)
	}

	c.entries[key] = entry{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

// evictLocked drops expired entries, or failing that, the entry closest to
// expiry.
func (c *TTLCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldestExpiry time.Time
	first := true

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if first || e.expiresAt.Before(oldestExpiry) {
			oldestKey = k
			oldestExpiry = e.expiresAt
			first = false
		}
	}

	if len(c.entries) >= c.capacity && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
