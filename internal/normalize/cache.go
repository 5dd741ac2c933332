package normalize

import (
	"sync"
	"time"

	"hsedash/domain/finding"

	"golang.org/x/sync/singleflight"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Cache is a read-through cache of normalizer output keyed by the raw
// dataset fingerprint. Entries expire after the TTL; a hit returns the whole
// prior result and a miss recomputes it fully. Concurrent misses for the same
// fingerprint share one normalization.
//
// Cached views are shared between callers and must be treated as read-only.
type Cache struct {
	normalizer *Normalizer
	ttl        time.Duration
	now        Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	views     finding.Views
	expiresAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces the wall clock.
func WithClock(clock Clock) CacheOption {
	return func(c *Cache) {
		c.now = clock
	}
}

// NewCache creates a cache in front of normalizer. A non-positive ttl
// disables caching: every Get normalizes.
func NewCache(normalizer *Normalizer, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		normalizer: normalizer,
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the views for raw and whether they came from the cache.
func (c *Cache) Get(raw *finding.RawDataset) (finding.Views, bool) {
	if raw == nil || c.ttl <= 0 {
		return c.normalizer.Normalize(raw), false
	}

	key := raw.Fingerprint()
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.views, true
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		views := c.normalizer.Normalize(raw)

		c.mu.Lock()
		c.evictExpired(now)
		c.entries[key] = cacheEntry{views: views, expiresAt: now.Add(c.ttl)}
		c.mu.Unlock()

		return views, nil
	})
	return v.(finding.Views), false
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// evictExpired must be called with mu held.
func (c *Cache) evictExpired(now time.Time) {
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
