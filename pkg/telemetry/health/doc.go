// Package health provides liveness and readiness probes.
//
// Liveness only proves the process is serving requests. Readiness runs every
// registered component check concurrently, each bounded by the checker
// timeout, and reports degraded with HTTP 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("offload", health.PingCheck(store))
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
package health
