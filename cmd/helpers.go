package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ziadkadry99/guidebook/internal/config"
	"github.com/ziadkadry99/guidebook/internal/db"
	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/persist"
	"github.com/ziadkadry99/guidebook/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `guidebook init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openBook returns a fetcher for the configured book and the absolute URL
// of its root directory, ending in a slash.
func openBook(cfg *config.Config) (fetch.Fetcher, string, error) {
	if !cfg.Remote() {
		return fetch.NewDir(cfg.Book), fetch.DirBase, nil
	}
	root, err := bookRoot(cfg.Book)
	if err != nil {
		return nil, "", err
	}
	return fetch.NewHTTP(cfg.FetchTimeout()), root, nil
}

// bookRoot turns a book URL into its directory URL: a page URL loses its
// last segment and a bare directory gains a trailing slash.
func bookRoot(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing book URL %q: %w", raw, err)
	}
	u.RawQuery, u.Fragment, u.RawFragment = "", "", ""
	last := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if last != "" && !strings.Contains(last, ".") {
		u.Path += "/"
	}
	return u.ResolveReference(&url.URL{Path: "./"}).String(), nil
}

// pageURL resolves a page path given on the command line against root.
func pageURL(root, page string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimPrefix(page, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing page %q: %w", page, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// openStore opens the persisted store named by the config. An empty store
// path keeps everything in memory.
func openStore(cfg *config.Config) (persist.Store, func(), error) {
	if cfg.StorePath == "" {
		return persist.NewMemory(), func() {}, nil
	}
	database, err := db.Open(cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return persist.NewSQL(database), func() { database.Close() }, nil
}

// sessionOptions maps config onto session timings.
func sessionOptions(cfg *config.Config) session.Options {
	opts := session.DefaultOptions()
	opts.Nav.SettleDelay = cfg.SettleDelay()
	opts.Nav.Passthrough = cfg.Navigation.Passthrough
	opts.SearchDebounce = cfg.Debounce()
	return opts
}
