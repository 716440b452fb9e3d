package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks response builds.
//
// Metrics:
//   - <ns>_<sub>_builds_total{tool,path}
//   - <ns>_<sub>_build_duration_seconds{path}
//   - <ns>_<sub>_estimated_tokens{stage} with stage "original" or "returned"
//   - <ns>_<sub>_reductions_total{policy,truncated}
type EngineMetrics struct {
	buildsTotal     *prometheus.CounterVec
	buildDuration   *prometheus.HistogramVec
	estimatedTokens *prometheus.HistogramVec
	reductionsTotal *prometheus.CounterVec
}

// NewEngineMetrics creates and registers engine metrics with the provided registry.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		buildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "builds_total",
				Help:      "Total number of responses built, by tool and build path",
			},
			[]string{"tool", "path"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_duration_seconds",
				Help:      "Duration of response builds in seconds",
				Buckets:   cfg.BuildDurationBuckets,
			},
			[]string{"path"},
		),
		estimatedTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "estimated_tokens",
				Help:      "Estimated token cost of tool results before and after shaping",
				Buckets:   cfg.TokenCountBuckets,
			},
			[]string{"stage"},
		),
		reductionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reductions_total",
				Help:      "Total number of collection reductions",
			},
			[]string{"policy", "truncated"},
		),
	}

	registry.MustRegister(
		em.buildsTotal,
		em.buildDuration,
		em.estimatedTokens,
		em.reductionsTotal,
	)

	return em
}
