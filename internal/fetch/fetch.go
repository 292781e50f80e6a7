// Package fetch retrieves book pages and the search index over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// maxBody caps a single page or index download.
var maxBody int64 = 32 << 20

// ErrTooLarge reports a document over the download cap. Such documents are
// refused rather than truncated.
var ErrTooLarge = errors.New("document too large")

// readBody reads r whole, failing with ErrTooLarge past maxBody bytes.
func readBody(name string, r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(body)) > maxBody {
		return nil, fmt.Errorf("reading %s: %w (limit %d bytes)", name, ErrTooLarge, maxBody)
	}
	return body, nil
}

// Response is a successfully fetched document.
type Response struct {
	// URL is the final URL after redirects.
	URL  *url.URL
	Body []byte
}

// Fetcher retrieves a document by absolute URL. Any non-2xx response is
// returned as a *StatusError.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, rawURL string) (*Response, error)

func (f Func) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	return f(ctx, rawURL)
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

// HTTP fetches documents with a shared keep-alive client.
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates a fetcher. A zero timeout leaves requests unbounded, which
// is how page transitions behave in a browser.
func NewHTTP(timeout time.Duration) *HTTP {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTP{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: "guidebook/1.0",
	}
}

// NewHTTPWithClient wraps an existing client, e.g. an httptest server client.
func NewHTTPWithClient(client *http.Client) *HTTP {
	return &HTTP{client: client, userAgent: "guidebook/1.0"}
}

func (h *HTTP) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := readBody(rawURL, resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{URL: resp.Request.URL, Body: body}, nil
}
