package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mercator-hq/callisto/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, mutate func(*config.CacheConfig)) (*MemoryCache, *fakeClock) {
	t.Helper()
	cfg := config.NewDefaultConfig().Cache
	if mutate != nil {
		mutate(&cfg)
	}
	c := NewMemoryCache(&cfg)
	clock := newFakeClock()
	c.now = clock.Now
	return c, clock
}

type recordingObserver struct {
	mu        sync.Mutex
	hits      int
	misses    int
	evictions map[string]int
	entries   int
}

func (o *recordingObserver) CacheHit() {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheMiss() {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheEviction(reason string) {
	o.mu.Lock()
	if o.evictions == nil {
		o.evictions = make(map[string]int)
	}
	o.evictions[reason]++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheSize(entries int, _ int64) {
	o.mu.Lock()
	o.entries = entries
	o.mu.Unlock()
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	c.Set(ctx, "k", []byte("value"), time.Minute)

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if string(got) != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}

	if _, ok := c.Get(ctx, "absent"); ok {
		t.Error("Get(absent) hit, want miss")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() hits=%d misses=%d, want 1 and 1", stats.Hits, stats.Misses)
	}
	if stats.Items != 1 {
		t.Errorf("Stats().Items = %d, want 1", stats.Items)
	}
	if want := int64(len("k") + len("value")); stats.SizeBytes != want {
		t.Errorf("Stats().SizeBytes = %d, want %d", stats.SizeBytes, want)
	}
	if rate := stats.HitRate(); rate != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", rate)
	}
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	in := []byte("abc")
	c.Set(ctx, "k", in, time.Minute)
	in[0] = 'X'

	out, _ := c.Get(ctx, "k")
	if string(out) != "abc" {
		t.Fatalf("stored value changed with caller slice: %q", out)
	}
	out[1] = 'Y'

	again, _ := c.Get(ctx, "k")
	if !bytes.Equal(again, []byte("abc")) {
		t.Errorf("stored value changed with returned slice: %q", again)
	}
}

func TestMemoryCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	c.Set(ctx, "k", []byte("first"), time.Minute)
	c.Set(ctx, "k", []byte("second-value"), time.Minute)

	got, _ := c.Get(ctx, "k")
	if string(got) != "second-value" {
		t.Errorf("Get() = %q, want last write", got)
	}
	stats := c.Stats()
	if stats.Items != 1 {
		t.Errorf("Items = %d, want 1", stats.Items)
	}
	if want := int64(len("k") + len("second-value")); stats.SizeBytes != want {
		t.Errorf("SizeBytes = %d, want %d", stats.SizeBytes, want)
	}
}

func TestMemoryCache_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, nil)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("Get() hit at expiry instant, want miss")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Items != 0 {
		t.Errorf("Items = %d, want 0", stats.Items)
	}
	if stats.SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, want 0", stats.SizeBytes)
	}
}

func TestMemoryCache_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, func(cfg *config.CacheConfig) {
		cfg.DefaultTTL = 10 * time.Second
	})

	c.Set(ctx, "k", []byte("v"), 0)
	clock.Advance(9 * time.Second)
	if !c.Exists(ctx, "k") {
		t.Fatal("Exists() = false before default TTL")
	}
	clock.Advance(time.Second)
	if c.Exists(ctx, "k") {
		t.Fatal("Exists() = true after default TTL")
	}
}

func TestMemoryCache_ExistsDoesNotCount(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Exists(ctx, "k")
	c.Exists(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Exists() touched hit/miss counters: %+v", stats)
	}
}

func TestMemoryCache_SweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, func(cfg *config.CacheConfig) {
		cfg.SweepSample = 2
		cfg.SweepMax = 100
		cfg.SweepRatio = 0.25
		cfg.SweepEvery = 1
	})

	for i := range 10 {
		c.Set(ctx, fmt.Sprintf("old-%d", i), []byte("v"), time.Second)
	}
	clock.Advance(2 * time.Second)

	c.Set(ctx, "fresh", []byte("v"), time.Minute)

	stats := c.Stats()
	if stats.Items != 1 {
		t.Errorf("Items = %d after sweep, want 1", stats.Items)
	}
	if stats.Evictions != 10 {
		t.Errorf("Evictions = %d, want 10", stats.Evictions)
	}
}

func TestMemoryCache_SweepStopsWhenMostlyLive(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, func(cfg *config.CacheConfig) {
		cfg.SweepSample = 5
		cfg.SweepMax = 5
	})

	for i := range 20 {
		c.Set(ctx, fmt.Sprintf("k-%d", i), []byte("v"), time.Hour)
	}

	stats := c.Stats()
	if stats.Items != 20 || stats.Evictions != 0 {
		t.Errorf("live entries evicted: items=%d evictions=%d", stats.Items, stats.Evictions)
	}
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, func(cfg *config.CacheConfig) {
		cfg.MaxEntries = 2
	})
	obs := &recordingObserver{}
	c.SetObserver(obs)

	c.Set(ctx, "soon", []byte("v"), time.Minute)
	c.Set(ctx, "later", []byte("v"), time.Hour)
	c.Set(ctx, "new", []byte("v"), time.Hour)

	if c.Exists(ctx, "soon") {
		t.Error("entry closest to expiry survived capacity eviction")
	}
	if !c.Exists(ctx, "later") || !c.Exists(ctx, "new") {
		t.Error("wrong entry evicted")
	}
	if got := c.Stats().Items; got != 2 {
		t.Errorf("Items = %d, want 2", got)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.evictions[EvictCapacity] != 1 {
		t.Errorf("capacity evictions observed = %d, want 1", obs.evictions[EvictCapacity])
	}
	if obs.entries != 2 {
		t.Errorf("observed size = %d, want 2", obs.entries)
	}
}

func TestMemoryCache_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Get(ctx, "a")

	c.Remove(ctx, "a")
	c.Remove(ctx, "never-set")
	if c.Exists(ctx, "a") {
		t.Fatal("Remove() left entry in place")
	}

	c.Clear(ctx)
	stats := c.Stats()
	if stats != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v, want zero", stats)
	}
}

func TestMemoryCache_ConcurrentStats(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)
	c.Set(ctx, "k", []byte("v"), time.Hour)

	const workers, perWorker = 8, 100

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				c.Get(ctx, "k")
				c.Get(ctx, fmt.Sprintf("miss-%d-%d", w, i))
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	if stats.Hits != workers*perWorker {
		t.Errorf("Hits = %d, want %d", stats.Hits, workers*perWorker)
	}
	if stats.Misses != workers*perWorker {
		t.Errorf("Misses = %d, want %d", stats.Misses, workers*perWorker)
	}
}

func TestMemoryCache_Observer(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, nil)
	obs := &recordingObserver{}
	c.SetObserver(obs)

	c.Set(ctx, "k", []byte("v"), time.Second)
	c.Get(ctx, "k")
	clock.Advance(time.Second)
	c.Get(ctx, "k")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.hits != 1 || obs.misses != 1 {
		t.Errorf("observer hits=%d misses=%d, want 1 and 1", obs.hits, obs.misses)
	}
	if obs.evictions[EvictExpired] != 1 {
		t.Errorf("expired evictions = %d, want 1", obs.evictions[EvictExpired])
	}
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache(nil)

	if !errors.Is(c.Reason, ErrUnavailable) {
		t.Errorf("Reason = %v, want ErrUnavailable", c.Reason)
	}

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("NoopCache.Get() hit")
	}
	if c.Exists(ctx, "k") {
		t.Error("NoopCache.Exists() = true")
	}
	if got := c.Stats().Misses; got != 1 {
		t.Errorf("Misses = %d, want 1", got)
	}

	var _ Cache = c
	var _ Cache = (*MemoryCache)(nil)
}
