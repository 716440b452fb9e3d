package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OffloadMetrics tracks the offload store.
//
// Metrics:
//   - <ns>_<sub>_offloads_total{result} with result "stored" or "failed"
//   - <ns>_<sub>_offload_bytes_total
//   - <ns>_<sub>_offload_pruned_total
type OffloadMetrics struct {
	offloadsTotal *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	prunedTotal   prometheus.Counter
}

// NewOffloadMetrics creates and registers offload metrics with the provided registry.
func NewOffloadMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OffloadMetrics {
	om := &OffloadMetrics{
		offloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "offloads_total",
				Help:      "Total number of offload attempts by result",
			},
			[]string{"result"},
		),
		bytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "offload_bytes_total",
				Help:      "Total uncompressed bytes offloaded",
			},
		),
		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "offload_pruned_total",
				Help:      "Total offloaded resources removed by retention",
			},
		),
	}

	registry.MustRegister(
		om.offloadsTotal,
		om.bytesTotal,
		om.prunedTotal,
	)

	return om
}
