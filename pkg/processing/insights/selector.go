package insights

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/processing/reduction"
	"mercator-hq/callisto/pkg/processing/tokens"
)

// labelOverhead is charged per entry for its type and importance labels.
const labelOverhead = 2

// Selector runs templates and keeps the most important proposals that fit
// a budget. It is safe for concurrent use.
type Selector struct {
	cfg       config.InsightsConfig
	estimator *tokens.Estimator

	mu        sync.RWMutex
	templates []Template
}

// NewSelector creates a selector. Without templates the built-in ones are
// used. A nil config uses the defaults.
func NewSelector(cfg *config.InsightsConfig, estimator *tokens.Estimator, templates ...Template) *Selector {
	var c config.InsightsConfig
	if cfg != nil {
		c = *cfg
	} else {
		c = config.NewDefaultConfig().Insights
	}
	if estimator == nil {
		estimator = tokens.NewEstimator(nil, nil)
	}
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	return &Selector{
		cfg:       c,
		estimator: estimator,
		templates: templates,
	}
}

// Register appends a template.
func (s *Selector) Register(t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
}

// Select runs every template over in and returns the insights and actions
// that fit budget, most important first within the bounds and in proposal
// order in the output. A budget <= 0 applies only the count bounds.
// When templates propose nothing, fallback insights are used. A positive
// budget is a hard cap: when not even the cheapest fallback fits, the
// selection is empty and the minimum count is not met.
func (s *Selector) Select(in Input, budget int) Selection {
	s.mu.RLock()
	templates := s.templates
	s.mu.RUnlock()

	var proposedInsights []Insight
	var proposedActions []Action
	for _, t := range templates {
		ins, acts := t(in)
		proposedInsights = append(proposedInsights, ins...)
		proposedActions = append(proposedActions, acts...)
	}

	proposedInsights = s.padInsights(proposedInsights, in)

	insights, spent := pick(proposedInsights,
		func(i Insight) float64 { return i.Importance.Score() },
		s.insightCost, budget, s.cfg.MaxInsights)

	remaining := 0
	if budget > 0 {
		remaining = budget - spent
		if remaining <= 0 {
			return Selection{Insights: insights, Actions: []Action{}}
		}
	}

	actions, _ := pick(proposedActions,
		func(a Action) float64 { return a.Priority.Score() },
		s.actionCost, remaining, s.cfg.MaxActions)

	return Selection{Insights: insights, Actions: actions}
}

// padInsights tops up proposals with fallback insights so the minimum
// count is met, and always yields at least one insight.
func (s *Selector) padInsights(proposed []Insight, in Input) []Insight {
	want := max(s.cfg.MinInsights, 1)
	if len(proposed) >= want {
		return proposed
	}

	for _, f := range FallbackInsights(in.Tool) {
		if len(proposed) >= want {
			break
		}
		proposed = append(proposed, f)
	}
	return proposed
}

// FallbackInsights are used when templates propose too few insights.
func FallbackInsights(tool string) []Insight {
	fallback := []Insight{{
		Text:       "Operation completed successfully",
		Type:       TypeInformation,
		Importance: ImportanceLow,
	}}
	if tool != "" {
		fallback = append(fallback, Insight{
			Text:       fmt.Sprintf("Result produced by %s", tool),
			Type:       TypeInformation,
			Importance: ImportanceLow,
		})
	}
	return append(fallback, Insight{
		Text:       "Request a larger token budget for more detail",
		Type:       TypeRecommendation,
		Importance: ImportanceLow,
	})
}

func (s *Selector) insightCost(i Insight) int {
	return s.estimator.EstimateText(i.Text) + labelOverhead
}

func (s *Selector) actionCost(a Action) int {
	return s.estimator.EstimateText(a.Tool) +
		s.estimator.EstimateText(a.Description) +
		s.estimator.Estimate(a.Parameters) +
		labelOverhead
}

type ranked[T any] struct {
	index int
	item  T
}

// pick keeps at most limit items by descending score within budget and
// returns them in input order with their total cost.
func pick[T any](items []T, score func(T) float64, cost func(T) int, budget, limit int) ([]T, int) {
	if limit <= 0 || len(items) == 0 {
		return []T{}, 0
	}

	rs := make([]ranked[T], len(items))
	for i, item := range items {
		rs[i] = ranked[T]{index: i, item: item}
	}

	b := budget
	if b <= 0 {
		b = math.MaxInt / 2
	}

	res := reduction.ReducePriority(rs,
		func(r ranked[T]) int { return cost(r.item) },
		b,
		&reduction.Context[ranked[T]]{
			Priority: func(r ranked[T]) float64 { return score(r.item) },
		},
	)

	kept := res.Items
	if forced, _ := res.Metadata[reduction.MetaForcedSingleItem].(bool); forced && budget > 0 {
		return []T{}, 0
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].index < kept[j].index })

	out := make([]T, len(kept))
	total := 0
	for i, r := range kept {
		out[i] = r.item
		total += cost(r.item)
	}
	return out, total
}
