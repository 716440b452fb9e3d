package tokens

import (
	"fmt"
	"reflect"
)

// maxDepth bounds nesting before a value is treated as unestimable.
const maxDepth = 512

type visitKey struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// Walker carries the state of a single Estimate call. It is not safe for
// concurrent use and must not be retained by strategies.
type Walker struct {
	est     *Estimator
	visited map[visitKey]struct{}
	depth   int
	err     error
}

func newWalker(est *Estimator) *Walker {
	return &Walker{est: est}
}

// Estimate costs a nested value through the registry.
func (w *Walker) Estimate(v reflect.Value) int {
	if w.err != nil || !v.IsValid() {
		return 0
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return 0
		}
	}

	if w.depth >= maxDepth {
		w.Fail(fmt.Errorf("%w: nesting deeper than %d", ErrEstimation, maxDepth))
		return 0
	}
	w.depth++
	defer func() { w.depth-- }()

	cost := w.est.registry.Resolve(v).Estimate(v, w)
	if cost < 0 {
		return 0
	}
	return cost
}

// Text costs a string with the estimator's heuristic.
func (w *Walker) Text(s string) int {
	return w.est.EstimateText(s)
}

// ItemOverhead is the structural cost charged per collection element.
func (w *Walker) ItemOverhead() int {
	return w.est.cfg.ItemOverhead
}

// FallbackCost is the conservative cost for values that cannot be costed.
func (w *Walker) FallbackCost() int {
	return w.est.cfg.FallbackCost
}

// Fail aborts the walk. The top-level estimate becomes FallbackCost.
func (w *Walker) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Err returns the error that aborted the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// enter marks a reference value as being on the current path. It reports
// false, and fails the walk, when the value is already on the path.
// Values reachable twice through different paths are not cycles.
func (w *Walker) enter(v reflect.Value) (func(), bool) {
	var key visitKey
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		key = visitKey{ptr: v.Pointer(), typ: v.Type()}
	case reflect.Slice:
		key = visitKey{ptr: v.Pointer(), typ: v.Type(), n: v.Len()}
	default:
		return func() {}, true
	}
	if key.ptr == 0 {
		return func() {}, true
	}

	if w.visited == nil {
		w.visited = make(map[visitKey]struct{})
	}
	if _, seen := w.visited[key]; seen {
		w.Fail(fmt.Errorf("%w: %s revisited", ErrCyclicStructure, v.Type()))
		return nil, false
	}
	w.visited[key] = struct{}{}
	return func() { delete(w.visited, key) }, true
}
