// Package telemetry wires the observability stack of a callisto process.
//
// The subpackages can be used on their own:
//
//   - logging: slog handlers with context fields and secret redaction
//   - metrics: Prometheus collectors for builds, the cache and offloading
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness probes
//
// New builds all of them from one TelemetryConfig:
//
//	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Health().Register("offload", health.PingCheck(store))
package telemetry
