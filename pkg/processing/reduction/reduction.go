package reduction

import (
	"math"
	"sort"
)

// Policy names a reduction policy.
type Policy string

const (
	// PolicyPriority keeps the highest scoring elements.
	PolicyPriority Policy = "priority"

	// PolicyStepped keeps an order-preserving prefix.
	PolicyStepped Policy = "stepped"
)

// Metadata keys recorded on every Result.
const (
	MetaPolicy           = "policy"
	MetaBudget           = "budget"
	MetaForcedSingleItem = "forced_single_item"
	MetaBestExcludedCost = "best_excluded_cost"
	MetaStep             = "step"
)

// DefaultSteps are the retention percentages tried by the stepped policy.
var DefaultSteps = []int{100, 75, 50, 25, 10}

// Context parameterizes a single reduction call.
type Context[T any] struct {
	// Policy selects the algorithm. Empty selects PolicyPriority when
	// Priority is set and PolicyStepped otherwise.
	Policy Policy

	// Priority scores an element; higher is kept first. Nil scores every
	// element equally, which keeps input order.
	Priority func(T) float64

	// PreserveOrder returns priority-selected elements in input order
	// instead of score order.
	PreserveOrder bool

	// Steps overrides DefaultSteps for the stepped policy.
	Steps []int

	// ItemOverhead is added to the cost of every retained element.
	ItemOverhead int
}

// Result is the outcome of a reduction. It must not be modified.
type Result[T any] struct {
	Items           []T
	OriginalCount   int
	EstimatedCost   int
	Truncated       bool
	RetainedPercent int
	Metadata        map[string]any
}

// Reduce applies the policy selected by rc. A nil rc uses the stepped
// policy with default steps and no overhead.
func Reduce[T any](items []T, cost func(T) int, budget int, rc *Context[T]) Result[T] {
	if rc == nil {
		rc = &Context[T]{}
	}

	policy := rc.Policy
	if policy == "" {
		if rc.Priority != nil {
			policy = PolicyPriority
		} else {
			policy = PolicyStepped
		}
	}

	if policy == PolicyPriority {
		return ReducePriority(items, cost, budget, rc)
	}
	return ReduceStepped(items, cost, budget, rc)
}

// ReducePriority keeps the highest scoring elements whose cumulative cost
// fits the budget. Elements are considered in descending score, ties in
// input order, and acceptance stops at the first element that does not fit.
func ReducePriority[T any](items []T, cost func(T) int, budget int, rc *Context[T]) Result[T] {
	if rc == nil {
		rc = &Context[T]{}
	}

	meta := map[string]any{
		MetaPolicy:           string(PolicyPriority),
		MetaBudget:           budget,
		MetaForcedSingleItem: false,
	}
	if len(items) == 0 {
		return emptyResult[T](meta)
	}

	costs := itemCosts(items, cost, rc.ItemOverhead)

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	if rc.Priority != nil {
		scores := make([]float64, len(items))
		for i, item := range items {
			scores[i] = rc.Priority(item)
		}
		sort.SliceStable(order, func(a, b int) bool {
			return scores[order[a]] > scores[order[b]]
		})
	}

	accepted := make([]int, 0, len(items))
	running := 0
	for _, idx := range order {
		if running+costs[idx] > budget {
			meta[MetaBestExcludedCost] = costs[idx]
			break
		}
		accepted = append(accepted, idx)
		running += costs[idx]
	}

	forced := false
	if len(accepted) == 0 {
		accepted = append(accepted, order[0])
		running = costs[order[0]]
		forced = true
		meta[MetaForcedSingleItem] = true
		if len(order) > 1 {
			meta[MetaBestExcludedCost] = costs[order[1]]
		} else {
			delete(meta, MetaBestExcludedCost)
		}
	}

	if rc.PreserveOrder {
		sort.Ints(accepted)
	}

	selected := make([]T, len(accepted))
	for i, idx := range accepted {
		selected[i] = items[idx]
	}

	return newResult(selected, len(items), running, forced, meta)
}

// ReduceStepped keeps the longest prefix, among the configured retention
// steps, whose cost fits the budget. Input order is always preserved.
func ReduceStepped[T any](items []T, cost func(T) int, budget int, rc *Context[T]) Result[T] {
	if rc == nil {
		rc = &Context[T]{}
	}

	meta := map[string]any{
		MetaPolicy:           string(PolicyStepped),
		MetaBudget:           budget,
		MetaForcedSingleItem: false,
	}
	if len(items) == 0 {
		meta[MetaStep] = 100
		return emptyResult[T](meta)
	}

	costs := itemCosts(items, cost, rc.ItemOverhead)

	// prefix[i] is the cost of the first i elements.
	prefix := make([]int, len(items)+1)
	for i, c := range costs {
		prefix[i+1] = prefix[i] + c
	}

	n := len(items)
	keep := 0
	for _, pct := range SanitizeSteps(rc.Steps) {
		count := stepCount(n, pct)
		if prefix[count] <= budget {
			keep = count
			meta[MetaStep] = pct
			break
		}
	}

	forced := false
	if keep == 0 {
		keep = 1
		forced = true
		meta[MetaForcedSingleItem] = true
	}
	if keep < n {
		meta[MetaBestExcludedCost] = costs[keep]
	}

	selected := make([]T, keep)
	copy(selected, items[:keep])

	return newResult(selected, n, prefix[keep], forced, meta)
}

// SanitizeSteps clamps steps to 1..100, drops duplicates and sorts them in
// descending order. An empty input yields DefaultSteps.
func SanitizeSteps(steps []int) []int {
	if len(steps) == 0 {
		return append([]int(nil), DefaultSteps...)
	}

	seen := make(map[int]bool, len(steps))
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		s = min(max(s, 1), 100)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// stepCount is ceil(n * pct / 100), at least 1.
func stepCount(n, pct int) int {
	count := (n*pct + 99) / 100
	return min(max(count, 1), n)
}

func itemCosts[T any](items []T, cost func(T) int, overhead int) []int {
	costs := make([]int, len(items))
	for i, item := range items {
		c := 0
		if cost != nil {
			c = cost(item)
		}
		costs[i] = max(c, 0) + max(overhead, 0)
	}
	return costs
}

func emptyResult[T any](meta map[string]any) Result[T] {
	return Result[T]{
		Items:           []T{},
		RetainedPercent: 100,
		Metadata:        meta,
	}
}

func newResult[T any](selected []T, original, cost int, forced bool, meta map[string]any) Result[T] {
	return Result[T]{
		Items:           selected,
		OriginalCount:   original,
		EstimatedCost:   cost,
		Truncated:       len(selected) < original || forced,
		RetainedPercent: int(math.Round(float64(len(selected)) / float64(original) * 100)),
		Metadata:        meta,
	}
}
