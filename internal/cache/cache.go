package cache

import (
	"sync"
	"time"

	"networth-tracker/internal/models"
)

// DefaultTTL is how long a computed result stays valid.
const DefaultTTL = 5 * time.Minute

type entry struct {
	result     models.AnalyticsResult
	computedAt time.Time
}

// Cache keeps the last analytics result per user. It is safe for concurrent use;
// concurrent writers for the same user race and the last Set wins.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	nowFn   func() time.Time
}

// New creates an empty cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		nowFn:   time.Now,
	}
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached result for userID if it was set no longer than TTL ago.
// Stale entries are evicted on the way out.
func (c *Cache) Get(userID string) (models.AnalyticsResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return models.AnalyticsResult{}, false
	}

	if c.nowFn().Sub(e.computedAt) > c.ttl {
		c.mu.Lock()
		// Only drop the entry we judged stale; a concurrent Set may have replaced it.
		if cur, ok := c.entries[userID]; ok && cur.computedAt.Equal(e.computedAt) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return models.AnalyticsResult{}, false
	}
	return e.result, true
}

// Set stores result for userID, stamped with the current time.
func (c *Cache) Set(userID string, result models.AnalyticsResult) {
	c.mu.Lock()
	c.entries[userID] = entry{result: result, computedAt: c.nowFn()}
	c.mu.Unlock()
}

// Invalidate drops the entry for userID. Unknown users are a no-op.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// ClearAll empties the cache.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Prune evicts every expired entry and returns how many were removed.
func (c *Cache) Prune() int {
	now := c.nowFn()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for userID, e := range c.entries {
		if now.Sub(e.computedAt) > c.ttl {
			delete(c.entries, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
