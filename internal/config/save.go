package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/moodb/internal/atomicfile"
)

type persistedConfig struct {
	Root      *string   `toml:"root,omitempty"`
	Debounce  *Duration `toml:"debounce,omitempty"`
	LogLevel  *string   `toml:"log_level,omitempty"`
	LogFormat *string   `toml:"log_format,omitempty"`
	Audit     bool      `toml:"audit,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the config to a specific path atomically. Keys left at their
// zero value are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		Root:      nonEmptyPtr(cfg.Root),
		LogLevel:  nonEmptyPtr(cfg.LogLevel),
		LogFormat: nonEmptyPtr(cfg.LogFormat),
		Audit:     cfg.Audit,
	}
	if cfg.Debounce.Duration > 0 {
		d := cfg.Debounce
		out.Debounce = &d
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
