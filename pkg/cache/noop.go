package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// NoopCache never stores anything. Every Get is a miss.
type NoopCache struct {
	// Reason explains why caching is unavailable.
	Reason error

	misses atomic.Int64
}

// NewNoopCache returns a pass-through cache. A nil reason uses
// ErrUnavailable.
func NewNoopCache(reason error) *NoopCache {
	if reason == nil {
		reason = ErrUnavailable
	}
	return &NoopCache{Reason: reason}
}

func (c *NoopCache) Get(context.Context, string) ([]byte, bool) {
	c.misses.Add(1)
	return nil, false
}

func (c *NoopCache) Set(context.Context, string, []byte, time.Duration) {}

func (c *NoopCache) Exists(context.Context, string) bool { return false }

func (c *NoopCache) Remove(context.Context, string) {}

func (c *NoopCache) Clear(context.Context) {
	c.misses.Store(0)
}

func (c *NoopCache) Stats() Stats {
	return Stats{Misses: c.misses.Load()}
}
