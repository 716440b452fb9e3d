package logging

import "context"

type contextKey string

// Context keys for request-scoped log fields.
const (
	RequestIDKey   contextKey = "request_id"
	ToolKey        contextKey = "tool"
	FingerprintKey contextKey = "fingerprint"
	ClientKey      contextKey = "client"
)

var contextKeys = []contextKey{RequestIDKey, ToolKey, FingerprintKey, ClientKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

// WithTool adds the tool name to the context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ToolKey, tool)
}

// GetTool retrieves the tool name from the context.
func GetTool(ctx context.Context) string {
	return get(ctx, ToolKey)
}

// WithFingerprint adds the cache fingerprint to the context.
func WithFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, FingerprintKey, fingerprint)
}

// GetFingerprint retrieves the cache fingerprint from the context.
func GetFingerprint(ctx context.Context) string {
	return get(ctx, FingerprintKey)
}

// WithClient adds the client name to the context.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientKey, client)
}

// GetClient retrieves the client name from the context.
func GetClient(ctx context.Context) string {
	return get(ctx, ClientKey)
}

func get(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// contextFields returns the request-scoped fields present in ctx as
// alternating key/value pairs.
func contextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range contextKeys {
		if v := get(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
