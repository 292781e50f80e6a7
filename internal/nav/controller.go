// Package nav intercepts in-book navigation and turns it into in-place page
// transitions: fetch the target, splice its regions into the displayed
// document, and bring the sidebar and preferences back in line.
package nav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/guidebook/internal/browser"
	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/prefs"
	"github.com/ziadkadry99/guidebook/internal/sidebar"
)

// State is the controller's transition state.
type State int32

const (
	StateIdle State = iota
	StateNavigating
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Outcome says what an activation ended up doing.
type Outcome int

const (
	// OutcomeIgnored: another transition was in flight.
	OutcomeIgnored Outcome = iota
	// OutcomeSpliced: the target was spliced into the current document.
	OutcomeSpliced
	// OutcomeFellBack: the transition failed and a full load was performed.
	OutcomeFellBack
	// OutcomeAnchor: an in-page fragment was scrolled to.
	OutcomeAnchor
	// OutcomeToggled: a sidebar node was expanded or collapsed.
	OutcomeToggled
	// OutcomeFullLoad: a link outside the intercepted regions was followed
	// with a full load.
	OutcomeFullLoad
	// OutcomeNotIntercepted: nothing was done.
	OutcomeNotIntercepted
)

var outcomeNames = [...]string{"ignored", "spliced", "fell-back", "anchor", "toggled", "full-load", "not-intercepted"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// BusyClass marks the page root while a transition is in flight.
const BusyClass = "is-navigating"

// DefaultSettleDelay is how long to wait before scrolling to a fragment on a
// freshly spliced page.
const DefaultSettleDelay = 100 * time.Millisecond

// Options tune a Controller.
type Options struct {
	// SettleDelay postpones fragment scrolling after a splice.
	SettleDelay time.Duration
	// Passthrough lists doublestar patterns of relative paths that are
	// never intercepted, such as downloads.
	Passthrough []string
	// Diagrams re-renders diagram blocks in spliced content. Optional.
	Diagrams DiagramRenderer
}

// Controller is the navigation state machine of one window. At most one
// transition runs at a time; activations arriving meanwhile are dropped.
type Controller struct {
	win     *browser.Window
	fetcher fetch.Fetcher
	sidebar *sidebar.State
	prefs   *prefs.Store
	opts    Options

	inflight atomic.Bool
	state    atomic.Int32

	mu   sync.Mutex
	base *url.URL
}

// New creates a controller for win.
func New(win *browser.Window, fetcher fetch.Fetcher, sb *sidebar.State, pf *prefs.Store, opts Options) *Controller {
	return &Controller{win: win, fetcher: fetcher, sidebar: sb, prefs: pf, opts: opts}
}

// State returns the current transition state.
func (c *Controller) State() State { return State(c.state.Load()) }

// InFlight reports whether a transition is running.
func (c *Controller) InFlight() bool { return c.inflight.Load() }

// SetBase records the base every relative target resolves against. It is
// captured once per full page load and does not follow in-place transitions.
func (c *Controller) SetBase(base *url.URL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if base == nil {
		c.base = nil
		return
	}
	b := *base
	c.base = &b
}

// Base returns the captured base URL.
func (c *Controller) Base() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base == nil {
		return nil
	}
	b := *c.base
	return &b
}

func (c *Controller) resolve(href string) (*url.URL, error) {
	base := c.Base()
	if base == nil {
		return c.win.Resolve(href)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", href, err)
	}
	return base.ResolveReference(ref), nil
}

// Activate handles activation of an internal link. On any failure the
// window falls back to a full load of href as written.
func (c *Controller) Activate(ctx context.Context, href string) (Outcome, error) {
	return c.run(ctx, func(id string) error {
		target, err := c.resolve(href)
		if err != nil {
			return err
		}
		return c.transition(ctx, id, target, true)
	}, func() error {
		return c.win.Assign(ctx, href)
	})
}

// PopState re-renders the current location after a history traversal. No
// history entry is pushed; on failure the location is reloaded in full.
func (c *Controller) PopState(ctx context.Context) (Outcome, error) {
	return c.run(ctx, func(id string) error {
		loc := c.win.Location()
		if loc == nil {
			return errors.New("no current location")
		}
		return c.transition(ctx, id, loc, false)
	}, func() error {
		return c.win.Reload(ctx)
	})
}

func (c *Controller) run(ctx context.Context, step func(id string) error, fallback func() error) (Outcome, error) {
	if !c.inflight.CompareAndSwap(false, true) {
		return OutcomeIgnored, nil
	}
	release := sync.OnceFunc(func() { c.inflight.Store(false) })
	defer release()

	id := uuid.NewString()[:8]
	c.state.Store(int32(StateNavigating))
	c.win.Do(func(doc *dom.Document) { doc.Root().AddClass(BusyClass) })

	err := step(id)
	if err == nil {
		c.state.Store(int32(StateIdle))
		return OutcomeSpliced, nil
	}

	log.Printf("nav[%s]: transition failed, loading in full: %v", id, err)
	c.win.Do(func(doc *dom.Document) { doc.Root().RemoveClass(BusyClass) })
	c.state.Store(int32(StateFailed))
	release()
	if ferr := fallback(); ferr != nil {
		return OutcomeFellBack, fmt.Errorf("full load after failed transition: %w", ferr)
	}
	return OutcomeFellBack, nil
}

func (c *Controller) transition(ctx context.Context, id string, target *url.URL, push bool) error {
	page := *target
	page.Fragment = ""
	page.RawFragment = ""

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, page.String())
	if err != nil {
		return err
	}
	fetched, err := dom.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return err
	}
	if fetched.Content().Length() == 0 {
		return fmt.Errorf("%s has no content region", page.String())
	}

	fragment := decodeFragment(target)
	var spliceErr error
	found := false
	c.win.Do(func(doc *dom.Document) {
		if spliceErr = c.splice(doc, fetched, &page); spliceErr != nil {
			return
		}
		found = fragment != "" && dom.ElementByID(doc.Content(), fragment).Length() > 0
		doc.Root().RemoveClass(BusyClass)
	})
	if spliceErr != nil {
		return spliceErr
	}

	if push {
		c.win.PushState(target)
	}
	if found {
		c.win.ScrollToAfter(c.opts.SettleDelay, fragment)
	} else {
		c.win.ScrollTop()
	}
	log.Printf("nav[%s]: %s spliced in %s", id, target.String(), time.Since(start).Round(time.Millisecond))
	return nil
}

// splice moves the fetched page's regions into doc and re-runs everything
// that depends on the content region.
func (c *Controller) splice(doc, fetched *dom.Document, page *url.URL) error {
	if err := dom.ReplaceInner(doc.Content(), fetched.Content()); err != nil {
		return err
	}
	dom.ReplaceRegion(doc.TOC(), fetched.TOC(), doc.Find(dom.SelTOCContainer))
	dom.ReplaceRegion(doc.NavLinks(), fetched.NavLinks(), doc.Find(dom.SelNavContainer))
	doc.SetTitle(fetched.Title())

	tree := sidebar.Build(doc)
	tree.ClearActive()
	base := c.Base()
	if base == nil {
		base = page
	}
	tree.MarkCurrent(base, page)

	if c.opts.Diagrams != nil && doc.Find(dom.SelMermaid).Length() > 0 {
		c.opts.Diagrams.Render(doc)
	}
	if c.prefs != nil {
		c.prefs.Reapply(doc)
	}
	if c.sidebar != nil {
		if err := c.sidebar.Reconcile(tree); err != nil {
			log.Printf("nav: saving sidebar state: %v", err)
		}
	}
	return nil
}
