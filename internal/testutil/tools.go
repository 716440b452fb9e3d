package testutil

import (
	"context"
	"sync/atomic"
)

// Tool is a configurable fake tool that counts its invocations.
type Tool struct {
	ToolName string
	Result   any
	Err      error

	// Release, when non-nil, blocks Execute until it is closed or the
	// context is done.
	Release chan struct{}

	calls atomic.Int64
}

// NewTool returns a tool that always returns result.
func NewTool(name string, result any) *Tool {
	return &Tool{ToolName: name, Result: result}
}

// Name returns ToolName.
func (t *Tool) Name() string { return t.ToolName }

// Execute returns Result and Err after Release is closed.
func (t *Tool) Execute(ctx context.Context, _ map[string]any) (any, error) {
	t.calls.Add(1)
	if t.Release != nil {
		select {
		case <-t.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.Err != nil {
		return nil, t.Err
	}
	return t.Result, nil
}

// Calls returns the number of Execute calls.
func (t *Tool) Calls() int64 { return t.calls.Load() }

// Strings returns n strings of exactly width runes, each starting with its
// zero-padded index.
func Strings(n, width int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = pad(i, width)
	}
	return out
}

func pad(i, width int) string {
	b := make([]byte, width)
	for j := range b {
		b[j] = 'x'
	}
	copy(b, []byte{byte('0' + i/10%10), byte('0' + i%10)})
	return string(b)
}
