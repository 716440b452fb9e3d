package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxTools is the number of distinct tool names tracked before new
// names are aggregated into "other".
const DefaultMaxTools = 1000

// Collector records every metric exported by the engine.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	cache   *CacheMetrics
	engine  *EngineMetrics
	offload *OffloadMetrics
	http    *HTTPMetrics

	tools *CardinalityLimiter
}

// NewCollector creates a collector registering into registry. A nil
// registry creates a private one. cfg is copied and its zero fields are
// defaulted.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := config.MetricsConfig{}
	if cfg != nil {
		c = *cfg
	}
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.BuildDurationBuckets) == 0 {
		c.BuildDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}
	if len(c.TokenCountBuckets) == 0 {
		c.TokenCountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}

	return &Collector{
		config:   &c,
		registry: registry,
		cache:    NewCacheMetrics(&c, registry),
		engine:   NewEngineMetrics(&c, registry),
		offload:  NewOffloadMetrics(&c, registry),
		http:     NewHTTPMetrics(&c, registry),
		tools:    NewCardinalityLimiter(DefaultMaxTools),
	}
}

// Enabled reports whether recording is active.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// CacheObserver returns an observer recording events for the named cache.
// The result satisfies cache.Observer.
func (c *Collector) CacheObserver(name string) CacheRecorder {
	return CacheRecorder{c: c, name: name}
}

// RecordBuild records one completed response build.
func (c *Collector) RecordBuild(tool, path string, duration time.Duration, originalTokens, returnedTokens int) {
	if !c.config.Enabled {
		return
	}

	if !c.tools.Allow(tool) {
		tool = "other"
	}

	c.engine.buildsTotal.WithLabelValues(tool, path).Inc()
	c.engine.buildDuration.WithLabelValues(path).Observe(duration.Seconds())
	c.engine.estimatedTokens.WithLabelValues("original").Observe(float64(originalTokens))
	c.engine.estimatedTokens.WithLabelValues("returned").Observe(float64(returnedTokens))
}

// RecordReduction records one collection reduction.
func (c *Collector) RecordReduction(policy string, truncated bool) {
	if !c.config.Enabled {
		return
	}
	c.engine.reductionsTotal.WithLabelValues(policy, strconv.FormatBool(truncated)).Inc()
}

// RecordOffload records one offload attempt.
func (c *Collector) RecordOffload(stored bool, bytes int64) {
	if !c.config.Enabled {
		return
	}
	if !stored {
		c.offload.offloadsTotal.WithLabelValues("failed").Inc()
		return
	}
	c.offload.offloadsTotal.WithLabelValues("stored").Inc()
	c.offload.bytesTotal.Add(float64(bytes))
}

// RecordPruned records resources removed by retention.
func (c *Collector) RecordPruned(deleted int64) {
	if !c.config.Enabled || deleted <= 0 {
		return
	}
	c.offload.prunedTotal.Add(float64(deleted))
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.http.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.http.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a
// label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting up to maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or fits under the cap.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
