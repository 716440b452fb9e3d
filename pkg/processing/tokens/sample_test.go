package tokens

import (
	"reflect"
	"testing"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name string
		n, k int
	}{
		{name: "k equals n", n: 10, k: 10},
		{name: "k above n", n: 5, k: 20},
		{name: "uneven buckets", n: 101, k: 20},
		{name: "large", n: 100000, k: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sampleIndices(tt.n, tt.k, 42)

			wantLen := tt.k
			if tt.k >= tt.n {
				wantLen = tt.n
			}
			if len(got) != wantLen {
				t.Fatalf("expected %d indices, got %d", wantLen, len(got))
			}

			for i, idx := range got {
				if idx < 0 || idx >= tt.n {
					t.Fatalf("index %d out of range: %d", i, idx)
				}
				if i > 0 && idx <= got[i-1] {
					t.Fatalf("indices not strictly increasing at %d: %v", i, got)
				}
			}

			if again := sampleIndices(tt.n, tt.k, 42); !reflect.DeepEqual(got, again) {
				t.Errorf("sampling not deterministic: %v vs %v", got, again)
			}
		})
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{0, 4, 0},
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{-3, 4, 0},
		{7, 1, 7},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
