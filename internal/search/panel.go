package search

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/ziadkadry99/guidebook/internal/dom"
)

// Debounce is the quiet period after the last keystroke before searching.
const Debounce = 200 * time.Millisecond

// Debouncer runs only the last of a burst of triggers, once delay has passed
// without another trigger.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending call. A non-positive delay
// runs fn immediately.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.delay <= 0 {
		d.mu.Unlock()
		fn()
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
	d.mu.Unlock()
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Surface is the part of the browser window the panel draws on.
type Surface interface {
	Do(fn func(doc *dom.Document))
	Location() *url.URL
}

// Panel drives the search box and its result panel on one window.
type Panel struct {
	surface  Surface
	client   *Client
	debounce *Debouncer

	mu      sync.Mutex
	query   string
	focused bool
	// epoch advances whenever the panel is dismissed so searches begun
	// before that never render.
	epoch uint64
}

// NewPanel wires a panel to surface. delay is the input debounce.
func NewPanel(surface Surface, client *Client, delay time.Duration) *Panel {
	return &Panel{surface: surface, client: client, debounce: NewDebouncer(delay)}
}

// Focus puts input focus on the search box and warms the index.
func (p *Panel) Focus(ctx context.Context) {
	p.mu.Lock()
	p.focused = true
	p.mu.Unlock()
	p.entries(ctx)
}

// Focused reports whether the search box has input focus.
func (p *Panel) Focused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// Input records the current query. An empty query clears the panel at once;
// anything else searches after the debounce.
func (p *Panel) Input(ctx context.Context, query string) {
	p.mu.Lock()
	p.query = query
	epoch := p.epoch
	p.mu.Unlock()
	p.surface.Do(func(doc *dom.Document) {
		doc.Find(dom.SelSearchInput).SetAttr("value", query)
	})
	if len(query) < 1 {
		p.debounce.Cancel()
		p.clear()
		return
	}
	p.debounce.Trigger(func() { p.run(ctx, query, epoch) })
}

// Blur handles loss of focus. Focus moving inside the search control keeps
// the panel open; anywhere else dismisses it along with any pending search.
func (p *Panel) Blur(inside bool) {
	if inside {
		return
	}
	p.dismiss()
}

// Cancel dismisses the panel and removes input focus.
func (p *Panel) Cancel() {
	p.dismiss()
}

func (p *Panel) dismiss() {
	p.debounce.Cancel()
	p.mu.Lock()
	p.focused = false
	p.epoch++
	p.mu.Unlock()
	p.clear()
}

// Run searches for query immediately, bypassing the debounce, and returns
// the results it rendered.
func (p *Panel) Run(ctx context.Context, query string) []Result {
	p.debounce.Cancel()
	p.mu.Lock()
	p.query = query
	epoch := p.epoch
	p.mu.Unlock()
	if query == "" {
		p.clear()
		return nil
	}
	return p.run(ctx, query, epoch)
}

// current reports whether a search for query started in epoch may still
// render.
func (p *Panel) current(query string, epoch uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query == query && p.epoch == epoch
}

func (p *Panel) run(ctx context.Context, query string, epoch uint64) []Result {
	if !p.current(query, epoch) {
		return nil
	}
	results := Search(p.entries(ctx), query)
	var base *url.URL
	loc := p.surface.Location()
	p.surface.Do(func(doc *dom.Document) {
		base = doc.BaseURL(loc)
	})
	markup := Render(results, query, base)
	if !p.current(query, epoch) {
		return nil
	}
	p.surface.Do(func(doc *dom.Document) {
		panel := doc.Find(dom.SelSearchPanel)
		panel.SetHtml(markup)
		panel.AddClass("open")
	})
	return results
}

func (p *Panel) clear() {
	p.surface.Do(func(doc *dom.Document) {
		panel := doc.Find(dom.SelSearchPanel)
		panel.Empty()
		panel.RemoveClass("open")
	})
}

func (p *Panel) entries(ctx context.Context) []Entry {
	var indexURL *url.URL
	loc := p.surface.Location()
	p.surface.Do(func(doc *dom.Document) {
		indexURL = IndexURL(doc, loc)
	})
	if indexURL == nil {
		return nil
	}
	return p.client.Load(ctx, indexURL.String())
}
