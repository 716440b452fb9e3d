package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks response cache behavior.
//
// Metrics:
//   - <ns>_<sub>_cache_hits_total{cache}
//   - <ns>_<sub>_cache_misses_total{cache}
//   - <ns>_<sub>_cache_evictions_total{cache,reason}
//   - <ns>_<sub>_cache_entries{cache}
//   - <ns>_<sub>_cache_size_bytes{cache}
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	evictionsTotal *prometheus.CounterVec
	entries        *prometheus.GaugeVec
	sizeBytes      *prometheus.GaugeVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"cache", "reason"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),
		sizeBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_size_bytes",
				Help:      "Approximate bytes held by cache entries",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.evictionsTotal,
		cm.entries,
		cm.sizeBytes,
	)

	return cm
}

// CacheRecorder records events of one named cache. It satisfies
// cache.Observer.
type CacheRecorder struct {
	c    *Collector
	name string
}

func (o CacheRecorder) CacheHit() {
	if o.c.config.Enabled {
		o.c.cache.hitsTotal.WithLabelValues(o.name).Inc()
	}
}

func (o CacheRecorder) CacheMiss() {
	if o.c.config.Enabled {
		o.c.cache.missesTotal.WithLabelValues(o.name).Inc()
	}
}

func (o CacheRecorder) CacheEviction(reason string) {
	if o.c.config.Enabled {
		o.c.cache.evictionsTotal.WithLabelValues(o.name, reason).Inc()
	}
}

func (o CacheRecorder) CacheSize(entries int, bytes int64) {
	if o.c.config.Enabled {
		o.c.cache.entries.WithLabelValues(o.name).Set(float64(entries))
		o.c.cache.sizeBytes.WithLabelValues(o.name).Set(float64(bytes))
	}
}
