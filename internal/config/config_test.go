package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Book != "_book" {
		t.Errorf("expected default book %q, got %q", "_book", cfg.Book)
	}
	if cfg.SettleDelay() != 100*time.Millisecond {
		t.Errorf("expected settle delay 100ms, got %v", cfg.SettleDelay())
	}
	if cfg.Debounce() != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.Debounce())
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("expected fetch timeout 30s, got %v", cfg.FetchTimeout())
	}
	if cfg.Remote() {
		t.Error("default book should be a directory")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.guidebook.yml")

	original := DefaultConfig()
	original.Book = "https://docs.example.com/book/"
	original.StorePath = ""
	original.Navigation.Passthrough = []string{"api/**"}
	original.Server.Port = 9000

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Book != original.Book {
		t.Errorf("book: got %q, want %q", loaded.Book, original.Book)
	}
	if !loaded.Remote() {
		t.Error("an https book should be remote")
	}
	if loaded.StorePath != "" {
		t.Errorf("store_path: got %q, want empty", loaded.StorePath)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
	if len(loaded.Navigation.Passthrough) != 1 || loaded.Navigation.Passthrough[0] != "api/**" {
		t.Errorf("passthrough: got %v", loaded.Navigation.Passthrough)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Book != "_book" {
		t.Errorf("expected default book, got %q", cfg.Book)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("GUIDEBOOK_BOOK", "site")
	t.Setenv("GUIDEBOOK_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Book != "site" {
		t.Errorf("env override failed: got %q, want %q", loaded.Book, "site")
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("nested env override failed: got %d, want 9090", loaded.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty book", func(c *Config) { c.Book = "" }, true},
		{"negative settle delay", func(c *Config) { c.Navigation.SettleDelayMS = -1 }, true},
		{"negative fetch timeout", func(c *Config) { c.Navigation.FetchTimeoutSec = -1 }, true},
		{"bad passthrough", func(c *Config) { c.Navigation.Passthrough = []string{"api/[a-"} }, true},
		{"negative debounce", func(c *Config) { c.Search.DebounceMS = -5 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero delays", func(c *Config) { c.Navigation.SettleDelayMS = 0; c.Search.DebounceMS = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetectBookDir(t *testing.T) {
	root := t.TempDir()
	if got := DetectBookDir(root); got != "" {
		t.Errorf("empty dir detected %q", got)
	}

	site := filepath.Join(root, "site")
	if err := os.MkdirAll(site, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "index.html"), []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}
	// A directory without an index page is not a book.
	if err := os.MkdirAll(filepath.Join(root, "_book"), 0755); err != nil {
		t.Fatal(err)
	}

	if got := DetectBookDir(root); got != site {
		t.Errorf("DetectBookDir = %q, want %q", got, site)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.pdf", []string{"**/*.pdf"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
