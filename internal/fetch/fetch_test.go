package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page.html":
			w.Write([]byte("<html>ok</html>"))
		case "/moved.html":
			http.Redirect(w, r, "/page.html", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPWithClient(srv.Client())
	ctx := context.Background()

	resp, err := f.Fetch(ctx, srv.URL+"/page.html")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "<html>ok</html>" {
		t.Errorf("body = %q", resp.Body)
	}

	resp, err = f.Fetch(ctx, srv.URL+"/moved.html")
	if err != nil {
		t.Fatalf("Fetch redirect: %v", err)
	}
	if resp.URL.Path != "/page.html" {
		t.Errorf("final URL = %s, want /page.html", resp.URL)
	}

	_, err = f.Fetch(ctx, srv.URL+"/missing.html")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", se.StatusCode)
	}
}

func TestHTTPFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	if _, err := NewHTTP(0).Fetch(context.Background(), addr+"/x"); err == nil {
		t.Error("expected error from closed server")
	}
}

func TestFuncAdapter(t *testing.T) {
	called := false
	var f Fetcher = Func(func(ctx context.Context, rawURL string) (*Response, error) {
		called = true
		return &Response{Body: []byte(rawURL)}, nil
	})
	resp, err := f.Fetch(context.Background(), "x")
	if err != nil || !called || string(resp.Body) != "x" {
		t.Errorf("Func adapter: %v %v %q", err, called, resp.Body)
	}
}

func TestDirFetch(t *testing.T) {
	d := NewDir("../../testdata/book")
	ctx := context.Background()

	tests := []struct {
		rel     string
		want    string
		missing bool
	}{
		{"index.html", "<title>Introduction</title>", false},
		{"guide/", "<title>Guide</title>", false},
		{"guide", "<title>Guide</title>", false},
		{"guide/setup.html", "<title>Setup</title>", false},
		{"../../../etc/passwd", "", true},
		{"guide/missing.html", "", true},
	}
	for _, tt := range tests {
		resp, err := d.Fetch(ctx, d.URL(tt.rel))
		if tt.missing {
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
				t.Errorf("%s: err = %v, want 404", tt.rel, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.rel, err)
			continue
		}
		if !strings.Contains(string(resp.Body), tt.want) {
			t.Errorf("%s: body lacks %q", tt.rel, tt.want)
		}
	}

	if _, err := d.Fetch(ctx, "http://elsewhere.test/index.html"); err == nil {
		t.Error("URLs outside the book origin should fail")
	}
}

func TestOversizedBodyIsRefused(t *testing.T) {
	old := maxBody
	maxBody = 64
	defer func() { maxBody = old }()

	dir := t.TempDir()
	small := strings.Repeat("a", 64)
	large := strings.Repeat("b", 65)
	for name, body := range map[string]string{"small.html": small, "large.html": large} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ts := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer ts.Close()

	ctx := context.Background()
	d := NewDir(dir)
	h := NewHTTP(0)
	fetchers := map[string]func(name string) (*Response, error){
		"dir":  func(name string) (*Response, error) { return d.Fetch(ctx, d.URL(name)) },
		"http": func(name string) (*Response, error) { return h.Fetch(ctx, ts.URL+"/"+name) },
	}
	for kind, get := range fetchers {
		resp, err := get("small.html")
		if err != nil || string(resp.Body) != small {
			t.Errorf("%s: body at the limit: %v", kind, err)
		}
		resp, err = get("large.html")
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("%s: err = %v, want ErrTooLarge", kind, err)
		}
		if resp != nil {
			t.Errorf("%s: oversized body returned %d bytes", kind, len(resp.Body))
		}
	}
}
