package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
)

func TestSearchRanking(t *testing.T) {
	entries := []Entry{
		{Title: "Introduction", Content: "Getting started", Path: "/a"},
		{Title: "Other", Content: "No intro here", Path: "/b"},
	}
	got := Search(entries, "intro")
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Path != "/a" || got[0].Score != 10 {
		t.Errorf("first = %s score %d, want /a score 10", got[0].Path, got[0].Score)
	}
	if got[1].Path != "/b" || got[1].Score != 1 {
		t.Errorf("second = %s score %d, want /b score 1", got[1].Path, got[1].Score)
	}

	entries[0].Content = "Introductory material"
	if got := Search(entries, "INTRO"); got[0].Score != 11 {
		t.Errorf("title and content match should score 11, got %d", got[0].Score)
	}
}

func TestSearchStableAndTruncated(t *testing.T) {
	var entries []Entry
	for i := range 15 {
		entries = append(entries, Entry{Title: fmt.Sprintf("page %d", i), Content: "go", Path: fmt.Sprintf("/%d", i)})
	}
	entries = append(entries, Entry{Title: "Go tour", Path: "/tour"})

	got := Search(entries, "go")
	if len(got) != MaxResults {
		t.Fatalf("got %d results, want %d", len(got), MaxResults)
	}
	if got[0].Path != "/tour" {
		t.Errorf("title match should rank first, got %s", got[0].Path)
	}
	for i := 1; i < len(got); i++ {
		if want := fmt.Sprintf("/%d", i-1); got[i].Path != want {
			t.Errorf("result %d = %s, want %s (ties keep index order)", i, got[i].Path, want)
		}
	}
	if Search(entries, "") != nil {
		t.Error("empty query should return nothing")
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 80) + "Needle" + strings.Repeat("b", 80)
	tests := []struct {
		name  string
		entry Entry
		query string
		want  string
	}{
		{
			name:  "both ends truncated",
			entry: Entry{Title: "t", Content: long},
			query: "needle",
			want:  "..." + strings.Repeat("a", 50) + "Needle" + strings.Repeat("b", 50) + "...",
		},
		{
			name:  "short content kept whole",
			entry: Entry{Title: "t", Content: "find the needle here"},
			query: "needle",
			want:  "find the needle here",
		},
		{
			name:  "non-ascii counted in characters",
			entry: Entry{Title: "t", Content: strings.Repeat("é", 60) + "x"},
			query: "x",
			want:  "..." + strings.Repeat("é", 50) + "x",
		},
		{
			name:  "title only shows leading content",
			entry: Entry{Title: "Needle", Content: strings.Repeat("c", 120)},
			query: "needle",
			want:  strings.Repeat("c", 100) + "...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search([]Entry{tt.entry}, tt.query)
			if len(got) != 1 {
				t.Fatalf("got %d results", len(got))
			}
			if got[0].Snippet != tt.want {
				t.Errorf("snippet = %q\nwant      %q", got[0].Snippet, tt.want)
			}
		})
	}
}

func TestRenderEscapesBeforeHighlighting(t *testing.T) {
	results := []Result{{
		Entry:   Entry{Title: "Use <b> tags", Path: "tags.html"},
		Snippet: "wrap with <b>bold</b> & more",
	}}
	out := Render(results, "<b>", nil)
	if strings.Contains(out, "<b>") {
		t.Errorf("rendered output contains raw markup: %s", out)
	}
	if !strings.Contains(out, "<mark>&lt;b&gt;</mark>") {
		t.Errorf("query not highlighted: %s", out)
	}
	if !strings.Contains(out, "&amp; more") {
		t.Errorf("ampersand not escaped: %s", out)
	}

	if got := Highlight("Tom &amp; Jerry & amp", "amp"); got != "Tom &amp;<mark>amp</mark>; Jerry &amp; <mark>amp</mark>" {
		t.Errorf("Highlight = %q", got)
	}
	if got := Highlight("Go go GO", "go"); got != "<mark>Go</mark> <mark>go</mark> <mark>GO</mark>" {
		t.Errorf("Highlight = %q", got)
	}
}

func TestHighlightMarksWhatSearchMatched(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		want    string
	}{
		{"dotted capital I", "İstanbul office", "istanbul", "<mark>İstanbul</mark> office"},
		{"kelvin sign", "300 \u212a limit", "300 k", "<mark>300 \u212a</mark> limit"},
		{"multibyte before match", "日本語 Go", "go", "日本語 <mark>Go</mark>"},
		{"escaped neighbours", "a<b>Go & go", "go", "a&lt;b&gt;<mark>Go</mark> &amp; <mark>go</mark>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Search([]Entry{{Title: "T", Content: tt.content, Path: "p.html"}}, tt.query)
			if len(results) != 1 {
				t.Fatalf("Search(%q) found %d results", tt.query, len(results))
			}
			if got := Highlight(tt.content, tt.query); got != tt.want {
				t.Errorf("Highlight = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderResolvesPaths(t *testing.T) {
	base, _ := url.Parse("http://book.test/docs/")
	out := Render([]Result{{Entry: Entry{Title: "A", Path: "guide/a.html"}}}, "a", base)
	if !strings.Contains(out, `href="http://book.test/docs/guide/a.html"`) {
		t.Errorf("href not resolved: %s", out)
	}
	if out := Render(nil, `"x"`, nil); !strings.Contains(out, "&#34;x&#34;") {
		t.Errorf("no-results message not escaped: %s", out)
	}
}

func TestClientCachesSuccessAndRetriesFailure(t *testing.T) {
	var calls atomic.Int32
	fail := true
	f := fetch.Func(func(ctx context.Context, rawURL string) (*fetch.Response, error) {
		calls.Add(1)
		if fail {
			return nil, errors.New("connection refused")
		}
		return &fetch.Response{Body: []byte(`[{"title":"A","content":"x","path":"/a"}]`)}, nil
	})
	c := NewClient(f)
	ctx := context.Background()

	if got := c.Load(ctx, "http://book.test/search_index.json"); len(got) != 0 {
		t.Errorf("failed load = %v, want empty", got)
	}
	if c.Loaded() {
		t.Error("failure must not be cached")
	}
	fail = false
	if got := c.Load(ctx, "http://book.test/search_index.json"); len(got) != 1 {
		t.Fatalf("retry = %v", got)
	}
	c.Load(ctx, "http://book.test/search_index.json")
	if calls.Load() != 2 {
		t.Errorf("fetches = %d, want 2", calls.Load())
	}
}

func TestIndexURL(t *testing.T) {
	page, _ := url.Parse("http://book.test/docs/guide/a.html")
	doc, _ := dom.ParseString(`<html><head><base href="../"></head><body></body></html>`)
	if got := IndexURL(doc, page).String(); got != "http://book.test/docs/search_index.json" {
		t.Errorf("IndexURL = %s", got)
	}
	plain, _ := dom.ParseString(`<html><body></body></html>`)
	if got := IndexURL(plain, page).String(); got != "http://book.test/docs/guide/search_index.json" {
		t.Errorf("IndexURL without base = %s", got)
	}
}

func TestDebouncerRunsLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var mu sync.Mutex
	var ran []int
	done := make(chan struct{})
	for i := range 5 {
		d.Trigger(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != 4 {
		t.Errorf("ran = %v, want [4]", ran)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var ran atomic.Bool
	d.Trigger(func() { ran.Store(true) })
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	if ran.Load() {
		t.Error("cancelled call ran")
	}
}

type fakeSurface struct {
	mu  sync.Mutex
	doc *dom.Document
	loc *url.URL
}

func (s *fakeSurface) Do(fn func(doc *dom.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

func (s *fakeSurface) Location() *url.URL { return s.loc }

func (s *fakeSurface) panel() (string, bool) {
	var markup string
	var open bool
	s.Do(func(doc *dom.Document) {
		p := doc.Find(dom.SelSearchPanel)
		markup, _ = p.Html()
		open = p.HasClass("open")
	})
	return markup, open
}

func newPanel(t *testing.T, delay time.Duration) (*Panel, *fakeSurface) {
	t.Helper()
	doc, err := dom.ParseString(`<html><body><input id="book-search-input"><div id="book-search-results"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := url.Parse("http://book.test/index.html")
	s := &fakeSurface{doc: doc, loc: loc}
	f := fetch.Func(func(ctx context.Context, rawURL string) (*fetch.Response, error) {
		if rawURL != "http://book.test/search_index.json" {
			return nil, fmt.Errorf("unexpected fetch of %s", rawURL)
		}
		return &fetch.Response{Body: []byte(`[
			{"title":"Introduction","content":"Getting started","path":"index.html"},
			{"title":"Other","content":"No intro here","path":"other.html"}]`)}, nil
	})
	return NewPanel(s, NewClient(f), delay), s
}

func TestPanelInputAndDismiss(t *testing.T) {
	p, s := newPanel(t, 0)
	ctx := context.Background()

	p.Focus(ctx)
	if !p.client.Loaded() {
		t.Error("focus should load the index")
	}
	p.Input(ctx, "intro")
	markup, open := s.panel()
	if !open || strings.Count(markup, "search-results-item") != 2 {
		t.Fatalf("panel open=%v markup=%s", open, markup)
	}
	if !strings.Contains(markup, `href="http://book.test/index.html"`) {
		t.Errorf("result href not resolved: %s", markup)
	}

	p.Blur(true)
	if _, open := s.panel(); !open {
		t.Error("focus moving inside the control must keep the panel")
	}
	p.Blur(false)
	if markup, open := s.panel(); open || markup != "" {
		t.Error("blur outside should dismiss the panel")
	}

	p.Focus(ctx)
	p.Input(ctx, "intro")
	p.Input(ctx, "")
	if _, open := s.panel(); open {
		t.Error("empty query should clear the panel")
	}

	p.Input(ctx, "intro")
	p.Cancel()
	if _, open := s.panel(); open || p.Focused() {
		t.Error("cancel should dismiss the panel and drop focus")
	}
}

func TestPanelDebouncesInput(t *testing.T) {
	p, s := newPanel(t, 30*time.Millisecond)
	ctx := context.Background()
	p.Input(ctx, "i")
	p.Input(ctx, "in")
	p.Input(ctx, "intro")
	if _, open := s.panel(); open {
		t.Fatal("search ran before the debounce elapsed")
	}
	deadline := time.Now().Add(time.Second)
	for {
		if _, open := s.panel(); open {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced search never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Run(ctx, "other"); len(got) != 1 || got[0].Path != "other.html" {
		t.Errorf("Run = %v", got)
	}
}

func TestPanelBlurDropsPendingSearch(t *testing.T) {
	p, s := newPanel(t, 30*time.Millisecond)
	ctx := context.Background()
	p.Focus(ctx)
	p.Input(ctx, "intro")
	p.Blur(false)
	time.Sleep(100 * time.Millisecond)
	if markup, open := s.panel(); open || markup != "" {
		t.Errorf("debounced search rendered after blur: open=%v markup=%s", open, markup)
	}
}

func TestPanelBlurDropsSearchInFlight(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><input id="book-search-input"><div id="book-search-results"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := url.Parse("http://book.test/index.html")
	s := &fakeSurface{doc: doc, loc: loc}
	started := make(chan struct{})
	release := make(chan struct{})
	f := fetch.Func(func(ctx context.Context, rawURL string) (*fetch.Response, error) {
		close(started)
		<-release
		return &fetch.Response{Body: []byte(`[{"title":"Introduction","content":"Getting started","path":"index.html"}]`)}, nil
	})
	p := NewPanel(s, NewClient(f), 0)
	ctx := context.Background()

	done := make(chan []Result)
	go func() { done <- p.Run(ctx, "intro") }()
	<-started
	p.Blur(false)
	close(release)

	if got := <-done; got != nil {
		t.Errorf("Run = %v, want nothing after blur", got)
	}
	if markup, open := s.panel(); open || markup != "" {
		t.Errorf("panel open=%v markup=%s", open, markup)
	}
}
