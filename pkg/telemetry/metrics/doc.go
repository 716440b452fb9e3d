// Package metrics exposes Prometheus metrics for the response engine.
//
// Collector owns a private prometheus.Registry and registers four groups:
//
//   - cache: hits, misses, evictions by reason, entries and bytes
//   - engine: builds by tool and path, build duration, original and
//     returned token estimates, reductions by policy
//   - offload: persist outcomes, offloaded bytes, pruned resources
//   - http: requests and latency of the retrieval server
//
// Every recording method is a no-op when metrics are disabled. Tool names
// are a caller-controlled label and are capped by a CardinalityLimiter;
// names past the cap are recorded as "other".
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	memCache.SetObserver(collector.CacheObserver("response"))
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
