package application

import (
	"sync"
	"time"
)

// overviewCache keeps recently computed platform totals so that a dashboard
// polling the stats endpoint does not rerun every aggregate query.
type overviewCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]overviewCacheEntry
}

type overviewCacheEntry struct {
	overview  Overview
	expiresAt time.Time
}

func newOverviewCache(ttl time.Duration, maxEntries int, now func() time.Time) *overviewCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 8
	}
	if now == nil {
		now = time.Now
	}
	return &overviewCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]overviewCacheEntry),
	}
}

// Get returns a copy of the overview stored under key when it has not expired.
func (c *overviewCache) Get(key string) (Overview, bool) {
	if c == nil {
		return Overview{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Overview{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Overview{}, false
	}
	return cloneOverview(entry.overview), true
}

func (c *overviewCache) Store(key string, overview Overview) {
	if c == nil {
		return
	}
	cloned := cloneOverview(overview)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = overviewCacheEntry{overview: cloned, expiresAt: expiry}
}

func (c *overviewCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]overviewCacheEntry)
	c.mu.Unlock()
}

func (c *overviewCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *overviewCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

// cloneOverview detaches the peak hour pointer from the cached value.
func cloneOverview(o Overview) Overview {
	if o.PeakHour != nil {
		hour := *o.PeakHour
		o.PeakHour = &hour
	}
	return o
}
