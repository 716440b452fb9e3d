package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys use the "callisto.*" namespace.
const (
	AttrTool        = "callisto.tool"
	AttrFingerprint = "callisto.fingerprint"
	AttrRequestID   = "callisto.request_id"
	AttrClient      = "callisto.client"
	AttrBudget      = "callisto.budget"
	AttrPath        = "callisto.path"
	AttrCacheHit    = "callisto.cache.hit"

	AttrTokensOriginal = "callisto.tokens.original"
	AttrTokensReturned = "callisto.tokens.returned"

	AttrTruncated   = "callisto.truncated"
	AttrResourceURI = "callisto.resource.uri"
	AttrResourceLen = "callisto.resource.size"

	AttrErrorMessage = "error.message"
)

// BuildAttributes returns the start attributes of a response.build span.
func BuildAttributes(tool, fingerprint, client string, budget int) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrTool, tool),
		attribute.String(AttrFingerprint, fingerprint),
		attribute.String(AttrClient, client),
		attribute.Int(AttrBudget, budget),
	)
}

// SetOutcome records how a build finished.
func SetOutcome(span trace.Span, path string, cacheHit, truncated bool, original, returned int) {
	span.SetAttributes(
		attribute.String(AttrPath, path),
		attribute.Bool(AttrCacheHit, cacheHit),
		attribute.Bool(AttrTruncated, truncated),
		attribute.Int(AttrTokensOriginal, original),
		attribute.Int(AttrTokensReturned, returned),
	)
}

// SetResource records an offloaded resource on span.
func SetResource(span trace.Span, uri string, size int64) {
	span.SetAttributes(
		attribute.String(AttrResourceURI, uri),
		attribute.Int64(AttrResourceLen, size),
	)
}
