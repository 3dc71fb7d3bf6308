package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveToRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{
		Root:      "/srv/world",
		Debounce:  Duration{500 * time.Millisecond},
		LogLevel:  "warn",
		LogFormat: "json",
		Audit:     true,
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", *loaded, *cfg)
	}
}

func TestSaveToOmitsEmptyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := SaveTo(path, &Config{Root: "/srv/world"}); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `root = "/srv/world"`) {
		t.Errorf("missing root in:\n%s", text)
	}
	for _, key := range []string{"debounce", "log_level", "log_format", "audit"} {
		if strings.Contains(text, key) {
			t.Errorf("unexpected %s in:\n%s", key, text)
		}
	}
}

func TestSaveToRequiresPath(t *testing.T) {
	if err := SaveTo(" ", &Config{}); err == nil {
		t.Fatal("expected error")
	}
}
