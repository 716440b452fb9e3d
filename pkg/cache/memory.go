package cache

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/config"
)

type entry struct {
	value     []byte
	expiresAt time.Time
	size      int64
}

func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	cfg config.CacheConfig

	mu       sync.RWMutex
	entries  map[string]*entry
	writes   uint64
	observer Observer

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	size      atomic.Int64

	now func() time.Time
}

// NewMemoryCache creates an empty cache. A nil config uses the defaults.
func NewMemoryCache(cfg *config.CacheConfig) *MemoryCache {
	var c config.CacheConfig
	if cfg != nil {
		c = *cfg
	} else {
		c = config.NewDefaultConfig().Cache
	}

	if c.DefaultTTL <= 0 {
		c.DefaultTTL = config.DefaultCacheTTL
	}
	if c.SweepSample < 1 {
		c.SweepSample = config.DefaultCacheSweepSample
	}
	if c.SweepMax < c.SweepSample {
		c.SweepMax = c.SweepSample
	}
	if c.SweepRatio <= 0 {
		c.SweepRatio = config.DefaultCacheSweepRatio
	}
	if c.SweepEvery < 1 {
		c.SweepEvery = config.DefaultCacheSweepEvery
	}

	return &MemoryCache{
		cfg:      c,
		entries:  make(map[string]*entry),
		observer: noopObserver{},
		now:      time.Now,
	}
}

// SetObserver installs an event observer. Nil removes it.
func (c *MemoryCache) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

func (c *MemoryCache) obs() Observer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observer
}

// Get returns a copy of the value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	o := c.observer
	c.mu.RUnlock()

	if ok && !e.expired(now) {
		c.hits.Add(1)
		o.CacheHit()
		return bytes.Clone(e.value), true
	}

	if ok {
		c.expire(key, e)
	}
	c.misses.Add(1)
	o.CacheMiss()
	return nil, false
}

// Set stores a copy of value under key.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.now()
	e := &entry{
		value:     bytes.Clone(value),
		expiresAt: now.Add(ttl),
		size:      int64(len(key) + len(value)),
	}

	var reasons []string

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.size.Add(-old.size)
	} else if c.cfg.MaxEntries > 0 && len(c.entries) >= c.cfg.MaxEntries {
		if reason := c.evictOneLocked(now); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	c.entries[key] = e
	c.size.Add(e.size)

	c.writes++
	if c.writes%uint64(c.cfg.SweepEvery) == 0 {
		for i := c.sweepLocked(now); i > 0; i-- {
			reasons = append(reasons, EvictExpired)
		}
	}
	n := len(c.entries)
	o := c.observer
	c.mu.Unlock()

	for _, r := range reasons {
		o.CacheEviction(r)
	}
	o.CacheSize(n, c.size.Load())
}

// Exists reports whether a live entry is stored under key.
func (c *MemoryCache) Exists(_ context.Context, key string) bool {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false
	}
	if e.expired(now) {
		c.expire(key, e)
		return false
	}
	return true
}

// Remove deletes the entry for key.
func (c *MemoryCache) Remove(_ context.Context, key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.size.Add(-e.size)
	}
	n := len(c.entries)
	o := c.observer
	c.mu.Unlock()

	o.CacheSize(n, c.size.Load())
}

// Clear removes every entry and resets the statistics.
func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.writes = 0
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.size.Store(0)
	o := c.observer
	c.mu.Unlock()

	o.CacheSize(0, 0)
}

// Stats returns a snapshot of the cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Items:     n,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		SizeBytes: c.size.Load(),
	}
}

// expire removes e if it is still the entry stored under key.
func (c *MemoryCache) expire(key string, e *entry) {
	c.mu.Lock()
	removed := false
	if cur, ok := c.entries[key]; ok && cur == e {
		delete(c.entries, key)
		c.size.Add(-e.size)
		c.evictions.Add(1)
		removed = true
	}
	o := c.observer
	c.mu.Unlock()

	if removed {
		o.CacheEviction(EvictExpired)
	}
}

// sweepLocked inspects up to SweepSample entries and, if more than
// SweepRatio of them have expired, keeps going up to SweepMax entries.
// It returns the number of entries removed. Caller holds c.mu.
func (c *MemoryCache) sweepLocked(now time.Time) int {
	scanned, removed := 0, 0
	sampled := false

	for key, e := range c.entries {
		if scanned >= c.cfg.SweepMax {
			break
		}
		scanned++

		if e.expired(now) {
			delete(c.entries, key)
			c.size.Add(-e.size)
			removed++
		}

		if !sampled && scanned >= c.cfg.SweepSample {
			sampled = true
			if float64(removed) <= c.cfg.SweepRatio*float64(scanned) {
				break
			}
		}
	}

	c.evictions.Add(int64(removed))
	return removed
}

// evictOneLocked makes room for one entry: an expired entry from the
// sample if there is one, otherwise the sampled entry closest to expiry.
// Caller holds c.mu.
func (c *MemoryCache) evictOneLocked(now time.Time) string {
	var victim string
	var victimEntry *entry
	scanned := 0

	for key, e := range c.entries {
		if e.expired(now) {
			victim, victimEntry = key, e
			break
		}
		if victimEntry == nil || e.expiresAt.Before(victimEntry.expiresAt) {
			victim, victimEntry = key, e
		}
		scanned++
		if scanned >= c.cfg.SweepSample {
			break
		}
	}

	if victimEntry == nil {
		return ""
	}

	delete(c.entries, victim)
	c.size.Add(-victimEntry.size)
	c.evictions.Add(1)

	if victimEntry.expired(now) {
		return EvictExpired
	}
	return EvictCapacity
}
