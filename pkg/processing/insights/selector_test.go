package insights

import (
	"fmt"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/processing/tokens"
)

func silent(Input) ([]Insight, []Action) { return nil, nil }

func TestSelect_FallbackWhenTemplatesAreSilent(t *testing.T) {
	s := NewSelector(nil, nil, silent)

	sel := s.Select(Input{}, 0)
	if len(sel.Insights) != 1 {
		t.Fatalf("expected 1 fallback insight, got %d", len(sel.Insights))
	}
	if sel.Insights[0].Text != "Operation completed successfully" {
		t.Errorf("unexpected fallback text %q", sel.Insights[0].Text)
	}
	if sel.Insights[0].Type != TypeInformation || sel.Insights[0].Importance != ImportanceLow {
		t.Errorf("unexpected fallback classification %+v", sel.Insights[0])
	}
	if len(sel.Actions) != 0 {
		t.Errorf("expected no actions, got %d", len(sel.Actions))
	}
}

func TestSelect_PadsToMinimum(t *testing.T) {
	cfg := config.NewDefaultConfig().Insights
	cfg.MinInsights = 2
	s := NewSelector(&cfg, nil, silent)

	sel := s.Select(Input{Tool: "search"}, 0)
	if len(sel.Insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(sel.Insights))
	}
	if sel.Insights[1].Text != "Result produced by search" {
		t.Errorf("unexpected second fallback %q", sel.Insights[1].Text)
	}
}

func TestSelect_MaxKeepsMostImportant(t *testing.T) {
	levels := []Importance{ImportanceLow, ImportanceCritical, ImportanceMedium, ImportanceHigh, ImportanceLow, ImportanceCritical, ImportanceHigh}
	many := func(Input) ([]Insight, []Action) {
		out := make([]Insight, len(levels))
		for i, lvl := range levels {
			out[i] = Insight{Text: fmt.Sprintf("note %d", i), Type: TypeInformation, Importance: lvl}
		}
		return out, nil
	}

	cfg := config.NewDefaultConfig().Insights
	cfg.MaxInsights = 3
	s := NewSelector(&cfg, nil, many)

	sel := s.Select(Input{}, 0)
	if len(sel.Insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(sel.Insights))
	}

	// Critical at 1 and 5, then the first High at 3, in proposal order.
	want := []string{"note 1", "note 3", "note 5"}
	for i, ins := range sel.Insights {
		if ins.Text != want[i] {
			t.Errorf("insight %d: expected %q, got %q", i, want[i], ins.Text)
		}
	}
}

func TestSelect_NeverExceedsBudget(t *testing.T) {
	est := tokens.NewEstimator(nil, nil)
	wordy := func(Input) ([]Insight, []Action) {
		var out []Insight
		for i := 0; i < 5; i++ {
			out = append(out, Insight{Text: strings.Repeat("w", 40), Type: TypeInformation, Importance: ImportanceMedium})
		}
		return out, []Action{{Tool: "next", Description: strings.Repeat("d", 40), Priority: ImportanceHigh}}
	}
	s := NewSelector(nil, est, wordy)

	for _, budget := range []int{1, 12, 25, 40, 100} {
		sel := s.Select(Input{}, budget)

		spent := 0
		for _, ins := range sel.Insights {
			spent += s.insightCost(ins)
		}
		for _, a := range sel.Actions {
			spent += s.actionCost(a)
		}
		if spent > budget {
			t.Errorf("budget %d: selection costs %d", budget, spent)
		}
	}

	if sel := s.Select(Input{}, 1); len(sel.Insights) != 0 {
		t.Errorf("expected nothing to fit a budget of 1, got %d insights", len(sel.Insights))
	}
}

func TestSelect_BudgetOverridesMinimum(t *testing.T) {
	cfg := config.NewDefaultConfig().Insights
	cfg.MinInsights = 2
	s := NewSelector(&cfg, nil, silent)

	if sel := s.Select(Input{Tool: "search"}, 0); len(sel.Insights) != 2 {
		t.Fatalf("unbounded selection: expected 2 insights, got %d", len(sel.Insights))
	}

	sel := s.Select(Input{Tool: "search"}, 1)
	if len(sel.Insights) != 0 || len(sel.Actions) != 0 {
		t.Errorf("budget 1: expected empty selection, got %d insights and %d actions", len(sel.Insights), len(sel.Actions))
	}
}

func TestSelect_OffloadProducesReadAction(t *testing.T) {
	s := NewSelector(nil, nil)

	sel := s.Select(Input{
		Tool:         "logs",
		Truncated:    true,
		ResourceURI:  "callisto://resources/abc",
		ResourceSize: 2_500_000,
	}, 0)

	var found bool
	for _, a := range sel.Actions {
		if a.Tool == ReadResourceTool {
			found = true
			if a.Parameters["uri"] != "callisto://resources/abc" {
				t.Errorf("expected uri parameter, got %v", a.Parameters)
			}
		}
		if a.Tool == "logs" {
			t.Error("expected no re-run suggestion when the result was offloaded")
		}
	}
	if !found {
		t.Fatalf("expected %s action, got %+v", ReadResourceTool, sel.Actions)
	}

	if sel.Insights[0].Type != TypeWarning && sel.Insights[0].Type != TypeRecommendation {
		t.Errorf("unexpected first insight %+v", sel.Insights[0])
	}
	var sized bool
	for _, ins := range sel.Insights {
		if strings.Contains(ins.Text, "2.5 MB") {
			sized = true
		}
	}
	if !sized {
		t.Errorf("expected humanized size in offload notice, got %+v", sel.Insights)
	}
}

func TestTemplates(t *testing.T) {
	ins, _ := TruncationNotice(Input{Truncated: true, OriginalCount: 1000, RetainedCount: 10})
	if len(ins) != 1 || ins[0].Text != "Showing 10 of 1,000 items to fit the token budget" {
		t.Errorf("unexpected truncation notice %+v", ins)
	}
	if ins[0].Importance != ImportanceHigh {
		t.Errorf("expected high importance, got %s", ins[0].Importance)
	}

	if ins, acts := TruncationNotice(Input{}); ins != nil || acts != nil {
		t.Error("expected no truncation notice for untruncated result")
	}

	ins, _ = CollectionSummary(Input{Result: []int{1, 2, 3}})
	if len(ins) != 1 || ins[0].Text != "Result contains 3 items" {
		t.Errorf("unexpected collection summary %+v", ins)
	}

	ins, _ = CollectionSummary(Input{Result: map[string]any{}})
	if len(ins) != 1 || ins[0].Text != "Result is empty" {
		t.Errorf("unexpected empty summary %+v", ins)
	}

	if ins, _ := CollectionSummary(Input{Result: "text"}); ins != nil {
		t.Errorf("expected no summary for scalar result, got %+v", ins)
	}
}

func TestImportance_String(t *testing.T) {
	tests := map[Importance]string{
		ImportanceLow:      "low",
		ImportanceMedium:   "medium",
		ImportanceHigh:     "high",
		ImportanceCritical: "critical",
		Importance(9):      "unknown",
	}
	for imp, want := range tests {
		if got := imp.String(); got != want {
			t.Errorf("Importance(%d).String() = %q, want %q", imp, got, want)
		}
	}
	if ImportanceCritical.Score() <= ImportanceHigh.Score() {
		t.Error("expected critical to outrank high")
	}
}

func TestSelector_Register(t *testing.T) {
	s := NewSelector(nil, nil, silent)
	s.Register(func(Input) ([]Insight, []Action) {
		return []Insight{{Text: "custom", Type: TypeSuccess, Importance: ImportanceHigh}}, nil
	})

	sel := s.Select(Input{}, 0)
	if len(sel.Insights) != 1 || sel.Insights[0].Text != "custom" {
		t.Errorf("expected registered template output, got %+v", sel.Insights)
	}
}
