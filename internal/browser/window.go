// Package browser is a headless stand-in for the browser tab the runtime
// enhances: it holds the displayed document, the address bar, the history
// stack and the viewport, and performs full page loads.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
)

// Viewport is the scroll state of the window.
type Viewport struct {
	ScrollY int
	// Anchor is the id of the element last scrolled into view, empty at top.
	Anchor string
	Smooth bool
}

// LoadFunc runs after every full page load, like DOMContentLoaded.
type LoadFunc func(ctx context.Context, w *Window)

// PopStateFunc runs after a history traversal changed the location.
type PopStateFunc func(ctx context.Context, location *url.URL)

// Window owns one displayed document. All document access goes through Do,
// which serializes it the way a single UI thread would.
type Window struct {
	ID string

	fetcher fetch.Fetcher

	mu       sync.Mutex
	doc      *dom.Document
	entries  []*url.URL
	index    int
	viewport Viewport
	onLoad   []LoadFunc
	onPop    []PopStateFunc

	// pending is the deferred scroll of ScrollToAfter; scrollGen tells a
	// superseded timer that fired anyway to do nothing.
	pending   *time.Timer
	scrollGen uint64
}

// New creates an empty window. Call Assign to load the first page.
func New(fetcher fetch.Fetcher) *Window {
	return &Window{
		ID:      uuid.NewString(),
		fetcher: fetcher,
		doc:     dom.Blank(),
		index:   -1,
	}
}

// OnLoad registers a hook run after every full page load.
func (w *Window) OnLoad(fn LoadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLoad = append(w.onLoad, fn)
}

// OnPopState registers a hook run after Back, Forward or Go.
func (w *Window) OnPopState(fn PopStateFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onPop = append(w.onPop, fn)
}

// Do runs fn with exclusive access to the displayed document. fn must not
// call other Window methods.
func (w *Window) Do(fn func(doc *dom.Document)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.doc)
}

// Location returns a copy of the address bar URL, or nil before the first load.
func (w *Window) Location() *url.URL {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locationLocked()
}

func (w *Window) locationLocked() *url.URL {
	if w.index < 0 {
		return nil
	}
	u := *w.entries[w.index]
	return &u
}

// Resolve resolves href the way the browser would for a plain link: against
// the document base, which honours <base href>.
func (w *Window) Resolve(href string) (*url.URL, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", href, err)
	}
	base := w.doc.BaseURL(w.locationLocked())
	if base == nil {
		if !ref.IsAbs() {
			return nil, fmt.Errorf("cannot resolve relative %q before the first load", href)
		}
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// Assign performs a full navigation: the address bar changes immediately, a
// history entry is pushed, and the fetched page replaces the whole document.
// A failed load leaves a blank document at the requested address, as a
// browser error page would, and returns the error.
func (w *Window) Assign(ctx context.Context, href string) error {
	target, err := w.Resolve(href)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.pushLocked(target)
	w.mu.Unlock()

	return w.load(ctx, target)
}

// Reload fetches the current location again.
func (w *Window) Reload(ctx context.Context) error {
	loc := w.Location()
	if loc == nil {
		return fmt.Errorf("reload: nothing loaded")
	}
	return w.load(ctx, loc)
}

func (w *Window) load(ctx context.Context, target *url.URL) error {
	page := *target
	page.Fragment = ""
	page.RawFragment = ""

	doc := dom.Blank()
	resp, loadErr := w.fetcher.Fetch(ctx, page.String())
	if loadErr == nil {
		parsed, err := dom.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			loadErr = err
		} else {
			doc = parsed
		}
	}
	if loadErr != nil {
		log.Printf("browser[%s]: loading %s: %v", w.ID[:8], page.String(), loadErr)
	}

	w.mu.Lock()
	w.cancelScrollLocked()
	w.doc = doc
	w.viewport = Viewport{Anchor: target.Fragment}
	hooks := append([]LoadFunc(nil), w.onLoad...)
	w.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx, w)
	}
	return loadErr
}

// PushState appends u to the history stack without loading anything.
func (w *Window) PushState(u *url.URL) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelScrollLocked()
	w.pushLocked(u)
}

func (w *Window) pushLocked(u *url.URL) {
	c := *u
	w.entries = append(w.entries[:w.index+1], &c)
	w.index = len(w.entries) - 1
}

// ReplaceState overwrites the current history entry.
func (w *Window) ReplaceState(u *url.URL) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := *u
	if w.index < 0 {
		w.entries = []*url.URL{&c}
		w.index = 0
		return
	}
	w.entries[w.index] = &c
}

// Back moves one entry back. It reports false at the start of history.
func (w *Window) Back(ctx context.Context) bool { return w.Go(ctx, -1) }

// Forward moves one entry forward. It reports false at the end of history.
func (w *Window) Forward(ctx context.Context) bool { return w.Go(ctx, 1) }

// Go traverses history by delta entries and fires the popstate hooks.
func (w *Window) Go(ctx context.Context, delta int) bool {
	w.mu.Lock()
	next := w.index + delta
	if delta == 0 || next < 0 || next >= len(w.entries) {
		w.mu.Unlock()
		return false
	}
	w.index = next
	loc := w.locationLocked()
	hooks := append([]PopStateFunc(nil), w.onPop...)
	w.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx, loc)
	}
	return true
}

// History returns copies of the history entries and the current index.
func (w *Window) History() ([]*url.URL, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*url.URL, len(w.entries))
	for i, e := range w.entries {
		c := *e
		out[i] = &c
	}
	return out, w.index
}

// Viewport returns the current scroll state.
func (w *Window) Viewport() Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

// ScrollTop scrolls to the top of the page.
func (w *Window) ScrollTop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelScrollLocked()
	w.viewport = Viewport{}
}

// ScrollTo scrolls the element with the given id into view.
func (w *Window) ScrollTo(id string, smooth bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelScrollLocked()
	w.viewport = Viewport{Anchor: id, Smooth: smooth}
}

// ScrollToAfter scrolls to id once delay has elapsed, giving layout time to
// settle. A non-positive delay scrolls immediately. Any later scroll, history
// push or page load drops the pending scroll.
func (w *Window) ScrollToAfter(delay time.Duration, id string) {
	if delay <= 0 {
		w.ScrollTo(id, false)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelScrollLocked()
	gen := w.scrollGen
	w.pending = time.AfterFunc(delay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.scrollGen {
			return
		}
		w.pending = nil
		w.viewport = Viewport{Anchor: id}
	})
}

// PendingScroll reports whether a deferred scroll is still waiting.
func (w *Window) PendingScroll() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != nil
}

func (w *Window) cancelScrollLocked() {
	w.scrollGen++
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}

// SetScrollY records a user scroll.
func (w *Window) SetScrollY(y int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewport.ScrollY = y
}
