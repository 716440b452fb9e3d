package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/callisto/pkg/config"
)

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
	PatternEmail       = "email"
)

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Redactor masks secrets in log attributes and tool parameters.
type Redactor struct {
	patterns []redactPattern
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom ones. Custom patterns that fail to compile are skipped; config
// validation reports them.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{
		patterns: []redactPattern{
			{PatternAPIKey, regexp.MustCompile(`\b(sk|pk|rk)-[A-Za-z0-9_-]{8,}`), "$1-***"},
			{PatternBearerToken, regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
			{PatternPassword, regexp.MustCompile(`(?i)(password|passwd|pwd)[:=]\s*\S+`), "$1=***"},
			{PatternEmail, regexp.MustCompile(`[A-Za-z0-9._%+-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`), "***@$1"},
		},
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, redactPattern{p.Name, regex, p.Replacement})
	}

	return r
}

// RedactString scrubs every pattern from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr redacts one attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch {
	case v.Kind() == slog.KindGroup:
		attrs := v.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case IsSensitiveKey(a.Key):
		return slog.String(a.Key, mask(v.String()))
	case v.Kind() == slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case v.Kind() == slog.KindAny:
		if m, ok := v.Any().(map[string]any); ok {
			return slog.Any(a.Key, r.RedactParams(m))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// RedactParams returns a copy of params with sensitive values masked.
// Nested maps and slices are walked.
func (r *Redactor) RedactParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if IsSensitiveKey(k) {
			if s, ok := v.(string); ok {
				out[k] = mask(s)
			} else {
				out[k] = "***"
			}
			continue
		}
		out[k] = r.redactValue(v)
	}
	return out
}

func (r *Redactor) redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.RedactString(val)
	case map[string]any:
		return r.RedactParams(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.redactValue(item)
		}
		return out
	default:
		return v
	}
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "api-key", "apikey",
	"auth", "credential", "private_key",
}

// IsSensitiveKey reports whether a key name indicates secret data.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// mask keeps a four character prefix of long values.
func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
