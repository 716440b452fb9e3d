package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func newTestEstimator() *Estimator {
	cfg := config.NewDefaultConfig().Tokens
	return NewEstimator(&cfg, nil)
}

func TestEstimator_Text(t *testing.T) {
	est := newTestEstimator()

	tests := []struct {
		name  string
		input any
		want  int
	}{
		{name: "nil", input: nil, want: 0},
		{name: "empty string", input: "", want: 0},
		{name: "exact multiple", input: "abcd", want: 1},
		{name: "rounds up", input: "abcde", want: 2},
		{name: "counts runes", input: "héllo", want: 2},
		{name: "bytes", input: []byte("abcdefgh"), want: 2},
		{name: "raw json", input: json.RawMessage(`{"a":1}`), want: 2},
		{name: "integer", input: 123456, want: 2},
		{name: "bool", input: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.Estimate(tt.input); got != tt.want {
				t.Errorf("Estimate(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestEstimator_Collections(t *testing.T) {
	est := newTestEstimator()

	type record struct {
		Name   string `json:"name"`
		Count  int    `json:"count,omitempty"`
		Hidden string `json:"-"`
		secret string
	}

	tests := []struct {
		name  string
		input any
		want  int
	}{
		{name: "empty slice", input: []string{}, want: 0},
		{name: "nil map", input: map[string]int(nil), want: 0},
		{name: "slice", input: []string{"abcd", "abcdefgh"}, want: 5},
		{name: "array", input: [2]string{"abcd", "abcd"}, want: 4},
		{name: "map counts keys and values", input: map[string]int{"ab": 1234}, want: 3},
		{name: "struct follows json tags", input: record{Name: "abcdefgh", Hidden: "zzzzzzzzzzzz", secret: "x"}, want: 4},
		{name: "pointer to struct", input: &record{Name: "abcdefgh"}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.Estimate(tt.input); got != tt.want {
				t.Errorf("Estimate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimator_SamplesLargeCollections(t *testing.T) {
	est := newTestEstimator()

	uniform := make([]string, 1000)
	for i := range uniform {
		uniform[i] = "abcd"
	}
	if got := est.Estimate(uniform); got != 2000 {
		t.Errorf("expected sampled estimate of uniform list to be exact (2000), got %d", got)
	}

	mixed := make([]string, 500)
	for i := range mixed {
		mixed[i] = strings.Repeat("x", i%37)
	}
	first := est.Estimate(mixed)
	if first <= 0 {
		t.Fatalf("expected positive estimate, got %d", first)
	}
	for i := 0; i < 5; i++ {
		if got := est.Estimate(mixed); got != first {
			t.Fatalf("estimate not reproducible: %d then %d", first, got)
		}
	}
	if got := newTestEstimator().Estimate(mixed); got != first {
		t.Errorf("separate estimator with same config gave %d, want %d", got, first)
	}
}

func TestEstimator_MapSamplingIsOrderIndependent(t *testing.T) {
	est := newTestEstimator()

	m := make(map[string]string, 200)
	for i := 0; i < 200; i++ {
		m[fmt.Sprintf("key-%03d", i)] = strings.Repeat("v", i%23)
	}

	want := est.Estimate(m)
	for i := 0; i < 10; i++ {
		if got := est.Estimate(m); got != want {
			t.Fatalf("map estimate changed between calls: %d vs %d", want, got)
		}
	}
}

type node struct {
	Name string
	Next *node
}

func TestEstimator_CyclesUseFallback(t *testing.T) {
	est := newTestEstimator()

	loop := &node{Name: "a"}
	loop.Next = loop
	if got := est.Estimate(loop); got != config.DefaultFallbackCost {
		t.Errorf("expected fallback cost for pointer cycle, got %d", got)
	}

	self := map[string]any{"k": "v"}
	self["self"] = self
	if got := est.Estimate(self); got != config.DefaultFallbackCost {
		t.Errorf("expected fallback cost for map cycle, got %d", got)
	}

	list := []any{"a", nil}
	list[1] = list
	if got := est.Estimate(list); got != config.DefaultFallbackCost {
		t.Errorf("expected fallback cost for slice cycle, got %d", got)
	}
}

func TestEstimator_SharedReferencesAreNotCycles(t *testing.T) {
	est := newTestEstimator()

	shared := &node{Name: "x"}
	pair := []*node{shared, shared}

	// Each element: Name (1) + "x" (1) + overhead (1), Next (1) + nil (0) + overhead (1), plus slice overhead.
	if got := est.Estimate(pair); got != 12 {
		t.Errorf("expected 12 for shared pointers, got %d", got)
	}
}

func TestEstimator_UnserializableUsesFallback(t *testing.T) {
	est := newTestEstimator()

	if got := est.Estimate(make(chan int)); got != config.DefaultFallbackCost {
		t.Errorf("expected fallback cost for channel, got %d", got)
	}

	// A bad leaf costs the fallback without poisoning its siblings.
	mixed := []any{"abcd", func() {}}
	want := (1 + 1) + (config.DefaultFallbackCost + 1)
	if got := est.Estimate(mixed); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestEstimator_Monotonic(t *testing.T) {
	est := newTestEstimator()

	text := strings.Repeat("token budget ", 40)
	prev := 0
	for i := 0; i <= len(text); i++ {
		got := est.EstimateText(text[:i])
		if got < prev {
			t.Fatalf("estimate decreased at prefix %d: %d < %d", i, got, prev)
		}
		prev = got
	}
}

func TestEstimator_MonotonicCollections(t *testing.T) {
	est := newTestEstimator()
	threshold := config.DefaultSampleThreshold

	for _, size := range []int{threshold - 1, threshold} {
		prefix := make([]string, size)
		for i := range prefix {
			prefix[i] = strings.Repeat("w", 400)
		}
		base := est.Estimate(prefix)

		for k := 1; k <= 200; k++ {
			grown := append(append([]string(nil), prefix...), make([]string, k)...)
			if got := est.Estimate(grown); got < base {
				t.Fatalf("size %d + %d empty items: estimate %d < prefix estimate %d", size, k, got, base)
			}
		}
	}
}

type secret struct{ payload string }

func TestRegistry_CustomStrategy(t *testing.T) {
	est := newTestEstimator()

	err := est.Registry().Register(Strategy{
		Name:      "secret",
		Priority:  400,
		CanHandle: func(v reflect.Value) bool { return v.Type() == reflect.TypeFor[secret]() },
		Estimate:  func(reflect.Value, *Walker) int { return 7 },
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got := est.Estimate(secret{payload: "anything"}); got != 7 {
		t.Errorf("expected custom strategy cost 7, got %d", got)
	}
	if got := est.Estimate([]secret{{}, {}}); got != 16 {
		t.Errorf("expected nested custom cost 16, got %d", got)
	}
}

func TestRegistry_Ordering(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Strategy{
		Name:      "late-collection",
		Priority:  PriorityCollection,
		CanHandle: func(reflect.Value) bool { return false },
		Estimate:  func(reflect.Value, *Walker) int { return 0 },
	})

	var names []string
	for _, s := range r.Strategies() {
		names = append(names, s.Name)
	}
	want := []string{"string", "collection", "late-collection", "object"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected order %v, got %v", want, names)
	}

	if got := r.Resolve(reflect.ValueOf(3.5)).Name; got != "object" {
		t.Errorf("expected object fallback, got %q", got)
	}
}

func TestRegistry_RegisterReplacesByName(t *testing.T) {
	est := newTestEstimator()
	_ = est.Registry().Register(Strategy{
		Name:      "string",
		Priority:  PriorityString,
		CanHandle: func(v reflect.Value) bool { return v.Kind() == reflect.String },
		Estimate:  func(reflect.Value, *Walker) int { return 42 },
	})

	if got := est.Estimate("abcd"); got != 42 {
		t.Errorf("expected replaced string strategy, got %d", got)
	}
	if n := len(est.Registry().Strategies()); n != 3 {
		t.Errorf("expected 3 strategies after replacement, got %d", n)
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Strategy{Name: "broken"}); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("expected ErrInvalidStrategy, got %v", err)
	}
	if err := r.Register(Strategy{}); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("expected ErrInvalidStrategy for unnamed strategy, got %v", err)
	}
}

func TestEstimator_PanickingStrategy(t *testing.T) {
	est := newTestEstimator()
	_ = est.Registry().Register(Strategy{
		Name:      "boom",
		Priority:  1000,
		CanHandle: func(v reflect.Value) bool { return v.Kind() == reflect.Float64 },
		Estimate:  func(reflect.Value, *Walker) int { panic("boom") },
	})

	if got := est.Estimate(1.5); got != config.DefaultFallbackCost {
		t.Errorf("expected fallback cost after panic, got %d", got)
	}
}

func TestEstimator_Concurrent(t *testing.T) {
	est := newTestEstimator()

	payload := make([]map[string]any, 300)
	for i := range payload {
		payload[i] = map[string]any{"id": i, "name": strings.Repeat("n", i%11)}
	}
	want := est.Estimate(payload)

	var wg sync.WaitGroup
	errs := make(chan int, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := est.Estimate(payload); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("concurrent estimate %d differs from %d", got, want)
	}
}

func TestNewEstimator_NilConfig(t *testing.T) {
	est := NewEstimator(nil, nil)
	if est.CharsPerToken() != DefaultCharsPerToken {
		t.Errorf("expected default chars per token, got %d", est.CharsPerToken())
	}
}

func TestCost(t *testing.T) {
	est := newTestEstimator()
	cost := Cost[string](est)
	if got := cost("abcdefgh"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
