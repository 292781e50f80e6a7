package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (GUIDEBOOK_*). A double underscore
// separates nested keys: GUIDEBOOK_SERVER__PORT sets server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("GUIDEBOOK_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "GUIDEBOOK_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Book == "" {
		return fmt.Errorf("book is required")
	}
	if c.Navigation.SettleDelayMS < 0 {
		return fmt.Errorf("navigation.settle_delay_ms must be non-negative")
	}
	if c.Navigation.FetchTimeoutSec < 0 {
		return fmt.Errorf("navigation.fetch_timeout_sec must be non-negative")
	}
	for _, p := range c.Navigation.Passthrough {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid passthrough pattern %q", p)
		}
	}
	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("search.debounce_ms must be non-negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Remote reports whether Book names a served book rather than a directory.
func (c *Config) Remote() bool {
	return strings.HasPrefix(c.Book, "http://") || strings.HasPrefix(c.Book, "https://")
}

// SettleDelay returns the post-transition settle delay.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Navigation.SettleDelayMS) * time.Millisecond
}

// FetchTimeout returns the per-request page fetch timeout; zero means none.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Navigation.FetchTimeoutSec) * time.Second
}

// Debounce returns the search input debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}
