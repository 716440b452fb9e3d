package offload

import (
	"errors"
	"testing"
)

func TestParseHandle(t *testing.T) {
	id, uri := NewHandle("callisto")

	tests := []struct {
		name    string
		handle  string
		want    string
		wantErr bool
	}{
		{"full uri", uri, id, false},
		{"bare id", id, id, false},
		{"other scheme", "mcp://resources/" + id, id, false},
		{"wrong segment", "callisto://files/" + id, "", true},
		{"not a uuid", "callisto://resources/abc", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHandle(tt.handle)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHandle) {
					t.Fatalf("ParseHandle(%q) error = %v, want ErrInvalidHandle", tt.handle, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHandle(%q) error = %v", tt.handle, err)
			}
			if got != tt.want {
				t.Errorf("ParseHandle(%q) = %q, want %q", tt.handle, got, tt.want)
			}
		})
	}
}

func TestNewHandle_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		_, uri := NewHandle("callisto")
		if seen[uri] {
			t.Fatalf("duplicate handle %q", uri)
		}
		seen[uri] = true
	}
}
