package tokens

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Strategy costs one shape of value.
type Strategy struct {
	// Name identifies the strategy. Registering a strategy with an existing
	// name replaces it.
	Name string

	// Priority orders strategies; higher runs first.
	Priority int

	// CanHandle reports whether the strategy accepts the value.
	CanHandle func(v reflect.Value) bool

	// Estimate returns the cost of v. Nested values should be costed
	// through w so that the registry, sampling and cycle detection apply.
	Estimate func(v reflect.Value, w *Walker) int

	order int
}

// Built-in strategy priorities.
const (
	PriorityString     = 300
	PriorityCollection = 200
	PriorityObject     = 0
)

// Registry holds estimation strategies in resolution order. Reads are
// lock-free; Register swaps in a new sorted snapshot.
type Registry struct {
	mu       sync.Mutex
	next     int
	snapshot atomic.Pointer[[]Strategy]
}

// NewRegistry returns a registry containing the built-in string,
// collection and object strategies.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := []Strategy{}
	r.snapshot.Store(&empty)

	for _, s := range builtinStrategies() {
		_ = r.Register(s)
	}
	return r
}

// Register adds a strategy. Ties in priority resolve in registration order.
func (r *Registry) Register(s Strategy) error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidStrategy)
	}
	if s.CanHandle == nil || s.Estimate == nil {
		return fmt.Errorf("%w: %s: predicate and estimate are required", ErrInvalidStrategy, s.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.snapshot.Load()
	updated := make([]Strategy, 0, len(current)+1)
	for _, existing := range current {
		if existing.Name != s.Name {
			updated = append(updated, existing)
		}
	}

	r.next++
	s.order = r.next
	updated = append(updated, s)

	sort.SliceStable(updated, func(i, j int) bool {
		if updated[i].Priority != updated[j].Priority {
			return updated[i].Priority > updated[j].Priority
		}
		return updated[i].order < updated[j].order
	})

	r.snapshot.Store(&updated)
	return nil
}

// Resolve returns the strategy that costs v. The object strategy is
// returned when nothing else accepts the value.
func (r *Registry) Resolve(v reflect.Value) Strategy {
	for _, s := range *r.snapshot.Load() {
		if s.CanHandle(v) {
			return s
		}
	}
	return objectStrategy()
}

// Strategies returns the registered strategies in resolution order.
func (r *Registry) Strategies() []Strategy {
	current := *r.snapshot.Load()
	out := make([]Strategy, len(current))
	copy(out, current)
	return out
}
