// Package config handles moodb configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// RootEnv overrides the configured store root.
const RootEnv = "MOODB_ROOT"

// Defaults applied to keys the file leaves unset.
const (
	DefaultDebounce  = 100 * time.Millisecond
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config represents the moodb configuration.
type Config struct {
	// Root is the store directory: one subdirectory per object.
	Root string `toml:"root"`

	// Debounce is how long the watcher waits for a file to settle before
	// reporting it.
	Debounce Duration `toml:"debounce"`

	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `toml:"log_format"`

	// Audit enables the append-only change log under <root>/.moodb.
	Audit bool `toml:"audit"`
}

// Duration is a time.Duration written as a string ("250ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("duration must not be negative: %s", text)
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a config with every default applied and no root.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Debounce.Duration == 0 {
		c.Debounce.Duration = DefaultDebounce
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate checks values that cannot be caught while decoding.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be \"console\" or \"json\", got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// ResolveRoot returns the store root to use: override if set, then
// $MOODB_ROOT, then the configured root. A leading ~ is expanded.
func (c *Config) ResolveRoot(override string) (string, error) {
	root := override
	if root == "" {
		root = os.Getenv(RootEnv)
	}
	if root == "" {
		root = c.Root
	}
	if root == "" {
		return "", fmt.Errorf("no store root configured (use --root, %s, or root in %s)", RootEnv, DefaultPath())
	}
	return ExpandPath(root)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path:
// $XDG_CONFIG_HOME/moodb/config.toml, else ~/.config/moodb/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "moodb", "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "moodb", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a commented default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# moodb configuration

# Store directory (one subdirectory per object). $MOODB_ROOT overrides it.
# root = "~/worlds/default"

# How long a changed file must settle before it is picked up.
# debounce = "100ms"

# Logging: level is debug, info, warn or error; format is console or json.
# log_level = "info"
# log_format = "console"

# Append every change to <root>/.moodb/audit.log.
# audit = false
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
