package response

import (
	"context"
	"errors"
	"time"

	"mercator-hq/callisto/pkg/processing/insights"
)

var (
	// ErrNilTool is returned by Build when no tool is given.
	ErrNilTool = errors.New("tool is nil")

	// ErrOffload marks a failed offload. It is logged and reflected in
	// Meta.OffloadFailed; Build does not return it.
	ErrOffload = errors.New("offload failed")
)

// Tool produces the raw result of one invocation.
type Tool interface {
	Name() string
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// ToolFunc adapts a function into a Tool.
type ToolFunc struct {
	ToolName string
	Fn       func(ctx context.Context, params map[string]any) (any, error)
}

// Name returns ToolName.
func (f ToolFunc) Name() string { return f.ToolName }

// Execute calls Fn.
func (f ToolFunc) Execute(ctx context.Context, params map[string]any) (any, error) {
	return f.Fn(ctx, params)
}

// Request is one Build invocation.
type Request struct {
	// Params are passed to the tool and fingerprinted for caching.
	Params map[string]any

	// Budget is the token budget of the response. Zero uses the
	// configured default.
	Budget int

	// Priority scores collection elements. When set, collections are
	// reduced by the priority policy instead of the configured one.
	// Elements are JSON trees: map[string]any, []any, string, json.Number,
	// bool or nil.
	Priority func(item any) float64

	// Client names the calling client for environment detection. Empty
	// falls back to the client in the context.
	Client string
}

// Path records how a response was produced.
type Path string

const (
	PathCache     Path = "cache"
	PathInline    Path = "inline"
	PathReduced   Path = "reduced"
	PathOffload   Path = "offload"
	PathTruncated Path = "truncated"
)

// Reduction describes one reduced collection.
type Reduction struct {
	Field         string `json:"field" cbor:"field"`
	Policy        string `json:"policy" cbor:"policy"`
	OriginalCount int    `json:"original_count" cbor:"original_count"`
	RetainedCount int    `json:"retained_count" cbor:"retained_count"`
	Forced        bool   `json:"forced,omitempty" cbor:"forced,omitempty"`
}

// Meta describes a response. The flags are always populated.
type Meta struct {
	Tool        string `json:"tool" cbor:"tool"`
	Fingerprint string `json:"fingerprint,omitempty" cbor:"fingerprint,omitempty"`
	Path        Path   `json:"path" cbor:"path"`
	Environment string `json:"environment" cbor:"environment"`

	CacheHit          bool   `json:"cache_hit" cbor:"cache_hit"`
	Truncated         bool   `json:"truncated" cbor:"truncated"`
	ResourceAvailable bool   `json:"resource_available" cbor:"resource_available"`
	ResourceURI       string `json:"resource_uri" cbor:"resource_uri"`
	ResourceSize      int64  `json:"resource_size,omitempty" cbor:"resource_size,omitempty"`
	OffloadFailed     bool   `json:"offload_failed,omitempty" cbor:"offload_failed,omitempty"`
	Formatted         bool   `json:"formatted" cbor:"formatted"`

	Budget          int `json:"budget" cbor:"budget"`
	EstimatedTokens int `json:"estimated_tokens" cbor:"estimated_tokens"`
	OriginalTokens  int `json:"original_tokens" cbor:"original_tokens"`

	Reductions []Reduction `json:"reductions,omitempty" cbor:"reductions,omitempty"`
}

// Response is the budget-shaped result of a tool invocation.
type Response struct {
	// Content is the rendered text returned to the client.
	Content string `json:"content"`

	// Data is the result as a JSON tree after reduction. It is nil when
	// the result was offloaded or truncated.
	Data any `json:"data,omitempty"`

	Insights []insights.Insight `json:"insights"`
	Actions  []insights.Action  `json:"actions"`
	Meta     Meta               `json:"meta"`
}

// clone returns a copy whose slices can be modified independently.
func (r *Response) clone() *Response {
	c := *r
	c.Insights = append([]insights.Insight(nil), r.Insights...)
	c.Actions = append([]insights.Action(nil), r.Actions...)
	c.Meta.Reductions = append([]Reduction(nil), r.Meta.Reductions...)
	return &c
}

// Recorder receives build metrics. metrics.Collector implements it.
type Recorder interface {
	RecordBuild(tool, path string, duration time.Duration, originalTokens, returnedTokens int)
	RecordReduction(policy string, truncated bool)
	RecordOffload(stored bool, bytes int64)
}

type noopRecorder struct{}

func (noopRecorder) RecordBuild(string, string, time.Duration, int, int) {}
func (noopRecorder) RecordReduction(string, bool)                        {}
func (noopRecorder) RecordOffload(bool, int64)                           {}
