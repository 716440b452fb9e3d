// Package tracing provides OpenTelemetry spans for response building.
//
// When tracing is disabled New returns a noop tracer, so callers can always
// start spans without checking configuration. When enabled, spans are batched
// to an OTLP gRPC collector and sampled with one of three strategies:
//
//   - always: sample every trace
//   - never: sample nothing
//   - ratio: sample a fraction of traces by trace ID
//
// Every strategy is parent-based. The engine creates three spans:
//
//	response.build   one per Build call
//	tool.execute     the upstream tool invocation
//	offload.persist  storing an oversized result
//
// W3C Trace Context is propagated over HTTP by HTTPMiddleware.
package tracing
