package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = ".guidebook.yml"

// DefaultPassthrough are link patterns that always get a full page load.
var DefaultPassthrough = []string{
	"**/*.pdf",
	"**/*.epub",
	"**/*.zip",
	"**/*.{png,jpg,jpeg,gif,svg}",
}

// bookDirCandidates are the output directories common book builders use.
var bookDirCandidates = []string{"_book", "book", "site", "public", "docs"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Book:      "_book",
		StorePath: ".guidebook.db",
		Navigation: NavigationConfig{
			SettleDelayMS:   100,
			FetchTimeoutSec: 30,
			Passthrough:     append([]string(nil), DefaultPassthrough...),
		},
		Search: SearchConfig{
			DebounceMS: 200,
		},
		Server: ServerConfig{
			Port:     8080,
			AllowAll: false,
		},
	}
}

// DetectBookDir returns the first directory under root that looks like a
// built book, or "" when none does.
func DetectBookDir(root string) string {
	for _, name := range bookDirCandidates {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return dir
		}
	}
	return ""
}
