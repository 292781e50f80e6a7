package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
)

// IndexFile is the name of the index document next to the book root.
const IndexFile = "search_index.json"

// IndexURL locates the index for a page, honouring its <base href>.
func IndexURL(doc *dom.Document, page *url.URL) *url.URL {
	base := doc.BaseURL(page)
	if base == nil {
		return nil
	}
	return base.ResolveReference(&url.URL{Path: IndexFile})
}

// Client loads and caches the index. Once a load succeeds the entries are
// kept for the life of the client; a failed load is not cached, so a later
// call retries.
type Client struct {
	fetcher fetch.Fetcher

	mu      sync.Mutex
	entries []Entry
	loaded  bool
}

func NewClient(fetcher fetch.Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

// Load returns the index entries, fetching them from indexURL on first use.
// Failures are logged and yield an empty set.
func (c *Client) Load(ctx context.Context, indexURL string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.entries
	}
	entries, err := c.fetchIndex(ctx, indexURL)
	if err != nil {
		log.Printf("search: loading index %s: %v", indexURL, err)
		return nil
	}
	c.entries = entries
	c.loaded = true
	return c.entries
}

// Loaded reports whether a load has succeeded.
func (c *Client) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Client) fetchIndex(ctx context.Context, indexURL string) ([]Entry, error) {
	resp, err := c.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
