package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable describes a cache that cannot serve requests.
var ErrUnavailable = errors.New("cache unavailable")

// Cache stores opaque values with a time-to-live. Implementations must be
// safe for concurrent use and must copy values in both directions.
type Cache interface {
	// Get returns the value for key, or false if it is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A ttl <= 0 uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Exists reports whether a live entry exists without counting a hit
	// or miss.
	Exists(ctx context.Context, key string) bool

	// Remove deletes the entry for key.
	Remove(ctx context.Context, key string)

	// Clear removes every entry and resets the statistics.
	Clear(ctx context.Context)

	// Stats returns a snapshot of the cache statistics.
	Stats() Stats
}

// Stats is a point-in-time snapshot of cache statistics.
type Stats struct {
	Items     int   `json:"items"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	SizeBytes int64 `json:"size_bytes"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Eviction reasons reported to an Observer.
const (
	EvictExpired  = "expired"
	EvictCapacity = "capacity"
)

// Observer receives cache events, typically to export metrics.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEviction(reason string)
	CacheSize(entries int, bytes int64)
}

type noopObserver struct{}

func (noopObserver) CacheHit() {}
func (noopObserver) CacheMiss() {}
func (noopObserver) CacheEviction(string) {}
func (noopObserver) CacheSize(int, int64) {}
