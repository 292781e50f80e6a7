package config

// Config is the top-level guidebook configuration, corresponding to .guidebook.yml.
// Book is a built book directory or the http(s) URL of its front page.
type Config struct {
	Book       string           `yaml:"book" koanf:"book"`
	StorePath  string           `yaml:"store_path" koanf:"store_path"`
	Navigation NavigationConfig `yaml:"navigation" koanf:"navigation"`
	Search     SearchConfig     `yaml:"search" koanf:"search"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
}

// NavigationConfig tunes in-place page transitions.
type NavigationConfig struct {
	SettleDelayMS   int      `yaml:"settle_delay_ms" koanf:"settle_delay_ms"`
	FetchTimeoutSec int      `yaml:"fetch_timeout_sec" koanf:"fetch_timeout_sec"`
	Passthrough     []string `yaml:"passthrough" koanf:"passthrough"`
}

// SearchConfig holds search panel settings.
type SearchConfig struct {
	DebounceMS int `yaml:"debounce_ms" koanf:"debounce_ms"`
}

// ServerConfig holds settings for `guidebook serve`.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
