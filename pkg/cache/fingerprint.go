package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintPrefix prefixes every fingerprint.
const FingerprintPrefix = "fp:"

// Fingerprint derives a cache key from a tool name and its parameters.
// Parameters are encoded as JSON, whose map keys are sorted, so equal
// parameter sets produce equal keys regardless of construction order.
// Nil and empty parameters are equivalent.
func Fingerprint(tool string, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize parameters for %q: %w", tool, err)
	}
	if bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}

	h := sha256.New()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write(data)

	return FingerprintPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
