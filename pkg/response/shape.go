package response

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"mercator-hq/callisto/pkg/processing/reduction"
	"mercator-hq/callisto/pkg/processing/tokens"
)

// rootField names the result itself when it is a top-level collection.
const rootField = "$"

// truncationMarker is appended to previews and truncated content.
const truncationMarker = "\n..."

// normalize converts a tool result into a JSON tree and its encoding.
// Values that cannot be encoded are replaced by their fmt representation.
func normalize(v any) (any, []byte) {
	raw, err := json.Marshal(v)
	if err != nil {
		s := fmt.Sprintf("%v", v)
		raw, _ = json.Marshal(s)
		return s, raw
	}
	tree, err := decodeJSON(raw)
	if err != nil {
		s := string(raw)
		return s, raw
	}
	return tree, raw
}

type collection struct {
	field string
	items []any
	cost  int
}

// collections returns the reducible parts of tree, most expensive first.
func collections(tree any, est *tokens.Estimator) []collection {
	switch t := tree.(type) {
	case []any:
		if len(t) == 0 {
			return nil
		}
		return []collection{{field: rootField, items: t, cost: est.Estimate(t)}}
	case map[string]any:
		var out []collection
		for k, v := range t {
			items, ok := v.([]any)
			if !ok || len(items) == 0 {
				continue
			}
			out = append(out, collection{field: k, items: items, cost: est.Estimate(items)})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].cost != out[j].cost {
				return out[i].cost > out[j].cost
			}
			return out[i].field < out[j].field
		})
		return out
	}
	return nil
}

// reduceTree shrinks the collections of tree until its estimate fits
// budget or every collection has been reduced once. It returns the new
// tree, its estimate and what was reduced. tree is modified in place when
// it is a map.
func (b *Builder) reduceTree(tree any, budget int, priority func(any) float64) (any, int, []Reduction) {
	total := b.estimator.Estimate(tree)
	parts := collections(tree, b.estimator)
	if len(parts) == 0 {
		return tree, total, nil
	}

	rc := &reduction.Context[any]{
		Policy:        reduction.Policy(b.reduction.Policy),
		Steps:         b.reduction.Steps,
		ItemOverhead:  b.reduction.ItemOverhead,
		PreserveOrder: true,
	}
	if priority != nil {
		rc.Policy = reduction.PolicyPriority
		rc.Priority = priority
	}
	cost := tokens.Cost[any](b.estimator)

	var reductions []Reduction
	for _, part := range parts {
		if total <= budget {
			break
		}
		allowed := budget - (total - part.cost)
		if allowed < 0 {
			allowed = 0
		}

		res := reduction.Reduce(part.items, cost, allowed, rc)
		b.recorder.RecordReduction(res.Metadata[reduction.MetaPolicy].(string), res.Truncated)

		forced, _ := res.Metadata[reduction.MetaForcedSingleItem].(bool)
		reductions = append(reductions, Reduction{
			Field:         part.field,
			Policy:        res.Metadata[reduction.MetaPolicy].(string),
			OriginalCount: res.OriginalCount,
			RetainedCount: len(res.Items),
			Forced:        forced,
		})

		if part.field == rootField {
			tree = res.Items
		} else {
			tree.(map[string]any)[part.field] = res.Items
		}
		total = b.estimator.Estimate(tree)
	}
	return tree, total, reductions
}

// truncateText keeps at most maxRunes runes of s, appending a marker when
// anything was dropped.
func truncateText(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 1
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}

// indent renders tree as indented JSON for previews.
func indent(tree any) string {
	if s, ok := tree.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", tree)
	}
	return string(data)
}
