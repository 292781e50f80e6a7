package browser

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
)

func pageFetcher(pages map[string]string) fetch.Fetcher {
	return fetch.Func(func(ctx context.Context, rawURL string) (*fetch.Response, error) {
		body, ok := pages[rawURL]
		if !ok {
			return nil, &fetch.StatusError{URL: rawURL, StatusCode: 404, Status: "404 Not Found"}
		}
		u, _ := url.Parse(rawURL)
		return &fetch.Response{URL: u, Body: []byte(body)}, nil
	})
}

func page(title string) string {
	return `<html><head><title>` + title + `</title></head><body></body></html>`
}

func title(w *Window) string {
	var got string
	w.Do(func(doc *dom.Document) { got = doc.Title() })
	return got
}

func TestAssignLoadsAndRunsHooks(t *testing.T) {
	w := New(pageFetcher(map[string]string{
		"http://book.test/index.html":  page("Home"),
		"http://book.test/ch/one.html": page("One"),
	}))
	var loads atomic.Int32
	w.OnLoad(func(ctx context.Context, w *Window) { loads.Add(1) })

	ctx := context.Background()
	if err := w.Assign(ctx, "http://book.test/index.html"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if title(w) != "Home" {
		t.Errorf("title = %q, want Home", title(w))
	}
	if err := w.Assign(ctx, "ch/one.html#intro"); err != nil {
		t.Fatalf("Assign relative: %v", err)
	}
	if got := w.Location().String(); got != "http://book.test/ch/one.html#intro" {
		t.Errorf("location = %q", got)
	}
	if w.Viewport().Anchor != "intro" {
		t.Errorf("anchor = %q, want intro", w.Viewport().Anchor)
	}
	if loads.Load() != 2 {
		t.Errorf("load hooks ran %d times, want 2", loads.Load())
	}
}

func TestAssignFailureKeepsAddress(t *testing.T) {
	w := New(pageFetcher(map[string]string{"http://book.test/index.html": page("Home")}))
	ctx := context.Background()
	if err := w.Assign(ctx, "http://book.test/index.html"); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	err := w.Assign(ctx, "missing.html")
	var se *fetch.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if got := w.Location().String(); got != "http://book.test/missing.html" {
		t.Errorf("location = %q, want the requested address", got)
	}
	if title(w) != "" {
		t.Errorf("failed load should show a blank page, got title %q", title(w))
	}
}

func TestResolveHonoursBase(t *testing.T) {
	w := New(pageFetcher(map[string]string{
		"http://book.test/a/b/page.html": `<html><head><base href="../"></head><body></body></html>`,
	}))
	if _, err := w.Resolve("x.html"); err == nil {
		t.Error("relative resolve before first load should fail")
	}
	if err := w.Assign(context.Background(), "http://book.test/a/b/page.html"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	u, err := w.Resolve("x.html")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.String() != "http://book.test/a/x.html" {
		t.Errorf("Resolve = %s, want http://book.test/a/x.html", u)
	}
}

func TestHistoryTraversal(t *testing.T) {
	w := New(pageFetcher(nil))
	mustURL := func(s string) *url.URL {
		u, _ := url.Parse(s)
		return u
	}
	w.PushState(mustURL("http://book.test/1.html"))
	w.PushState(mustURL("http://book.test/2.html"))
	w.PushState(mustURL("http://book.test/3.html"))

	var popped []string
	w.OnPopState(func(ctx context.Context, loc *url.URL) { popped = append(popped, loc.Path) })
	ctx := context.Background()

	if !w.Back(ctx) || !w.Back(ctx) {
		t.Fatal("Back should succeed twice")
	}
	if w.Back(ctx) {
		t.Error("Back at start of history should report false")
	}
	if w.Location().Path != "/1.html" {
		t.Errorf("location = %s", w.Location())
	}
	if !w.Forward(ctx) {
		t.Fatal("Forward should succeed")
	}

	// Pushing truncates the forward entries.
	w.PushState(mustURL("http://book.test/4.html"))
	entries, idx := w.History()
	if len(entries) != 3 || idx != 2 || entries[2].Path != "/4.html" {
		t.Errorf("history = %v at %d", entries, idx)
	}
	if w.Forward(ctx) {
		t.Error("Forward after push should report false")
	}

	want := []string{"/2.html", "/1.html", "/2.html"}
	if len(popped) != len(want) {
		t.Fatalf("popped = %v, want %v", popped, want)
	}
	for i := range want {
		if popped[i] != want[i] {
			t.Errorf("popped[%d] = %s, want %s", i, popped[i], want[i])
		}
	}

	w.ReplaceState(mustURL("http://book.test/4.html#frag"))
	if w.Location().Fragment != "frag" {
		t.Errorf("ReplaceState did not update the current entry: %s", w.Location())
	}
	if entries, _ := w.History(); len(entries) != 3 {
		t.Errorf("ReplaceState must not grow history, got %d entries", len(entries))
	}
}

func TestScrolling(t *testing.T) {
	w := New(pageFetcher(nil))
	w.SetScrollY(120)
	if w.Viewport().ScrollY != 120 {
		t.Errorf("ScrollY = %d", w.Viewport().ScrollY)
	}
	w.ScrollTo("sec", true)
	if vp := w.Viewport(); vp.Anchor != "sec" || !vp.Smooth {
		t.Errorf("viewport = %+v", vp)
	}
	w.ScrollTop()
	if vp := w.Viewport(); vp.Anchor != "" || vp.ScrollY != 0 {
		t.Errorf("viewport after ScrollTop = %+v", vp)
	}

	w.ScrollToAfter(0, "now")
	if w.Viewport().Anchor != "now" {
		t.Error("zero delay should scroll synchronously")
	}

	w.ScrollToAfter(10*time.Millisecond, "later")
	deadline := time.Now().Add(time.Second)
	for w.Viewport().Anchor != "later" {
		if time.Now().After(deadline) {
			t.Fatal("delayed scroll never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLaterScrollCancelsPendingScroll(t *testing.T) {
	tests := []struct {
		name  string
		after func(w *Window)
		want  string
	}{
		{"scroll to top", func(w *Window) { w.ScrollTop() }, ""},
		{"scroll to anchor", func(w *Window) { w.ScrollTo("other", true) }, "other"},
		{"history push", func(w *Window) { w.PushState(&url.URL{Scheme: "http", Host: "book.local", Path: "/b.html"}) }, ""},
		{"second deferred scroll", func(w *Window) { w.ScrollToAfter(20*time.Millisecond, "second") }, "second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(pageFetcher(nil))
			w.ScrollToAfter(20*time.Millisecond, "stale")
			if !w.PendingScroll() {
				t.Fatal("scroll should be pending")
			}
			tt.after(w)
			time.Sleep(80 * time.Millisecond)
			if got := w.Viewport().Anchor; got != tt.want {
				t.Errorf("anchor = %q, want %q", got, tt.want)
			}
			if w.PendingScroll() {
				t.Error("no scroll should still be pending")
			}
		})
	}
}
