package config

import (
	"os"
	"testing"
)

func TestReloadConfig_KeepsPreviousOnFailure(t *testing.T) {
	path := writeConfig(t, "engine:\n  default_budget: 3000\n")

	if _, err := ReloadConfig(path); err != nil {
		t.Fatalf("initial reload failed: %v", err)
	}
	t.Cleanup(func() { SetConfig(nil) })

	if got := GetConfig().Engine.DefaultBudget; got != 3000 {
		t.Fatalf("expected budget 3000, got %d", got)
	}
	if ConfigPath() != path {
		t.Errorf("expected config path %q, got %q", path, ConfigPath())
	}

	if err := os.WriteFile(path, []byte("reduction:\n  policy: nope\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload to fail validation")
	}

	if got := GetConfig().Engine.DefaultBudget; got != 3000 {
		t.Errorf("expected previous config to remain, got budget %d", got)
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when configuration is not initialized")
		}
	}()
	_ = MustGetConfig()
}
