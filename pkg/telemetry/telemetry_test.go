package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("New(nil) succeeded, want error")
	}

	cfg := config.NewDefaultConfig().Telemetry
	var buf bytes.Buffer
	tel, err := New(&cfg, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tel.Shutdown(context.Background())

	if tel.Tracer().Enabled() {
		t.Error("tracing enabled by default")
	}
	if !tel.Metrics().Enabled() {
		t.Error("metrics disabled by default")
	}
	if got := tel.Health().Readiness(context.Background()); !got.Ready() {
		t.Errorf("readiness with no checks = %q", got.Status)
	}

	tel.Logger().Info("hello", "api_key", "sk-abcdefghijkl")
	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Fatalf("log output %q missing message", out)
	}
	if strings.Contains(out, "sk-abcdefghijkl") {
		t.Errorf("log output %q leaked the api key", out)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Logging.Level = "loud"
	if _, err := New(&cfg, nil); err == nil {
		t.Fatal("New() accepted an invalid log level")
	}
}
