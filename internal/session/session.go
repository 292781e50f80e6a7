// Package session assembles one headless reading session: a browser window
// with the navigation controller, the persisted stores and the search panel
// attached, booted again on every full page load.
package session

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ziadkadry99/guidebook/internal/browser"
	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/nav"
	"github.com/ziadkadry99/guidebook/internal/persist"
	"github.com/ziadkadry99/guidebook/internal/prefs"
	"github.com/ziadkadry99/guidebook/internal/search"
	"github.com/ziadkadry99/guidebook/internal/sidebar"
)

// Options configure a session.
type Options struct {
	Nav            nav.Options
	SearchDebounce time.Duration
}

// DefaultOptions mirrors the timings of the in-browser runtime.
func DefaultOptions() Options {
	return Options{
		Nav:            nav.Options{SettleDelay: nav.DefaultSettleDelay, Diagrams: nav.MermaidMarker},
		SearchDebounce: search.Debounce,
	}
}

// Session is one window and everything attached to it.
type Session struct {
	Window     *browser.Window
	Nav        *nav.Controller
	Sidebar    *sidebar.State
	Visibility *sidebar.Visibility
	Prefs      *prefs.Store
	Search     *search.Panel

	fetcher fetch.Fetcher
}

// New wires a session. store backs every persisted namespace and may be
// shared between sessions, the way tabs share browser storage.
func New(fetcher fetch.Fetcher, store persist.Store, opts Options) *Session {
	win := browser.New(fetcher)
	s := &Session{
		Window:     win,
		Sidebar:    sidebar.NewState(store),
		Visibility: sidebar.NewVisibility(store),
		Prefs:      prefs.New(store),
		fetcher:    fetcher,
	}
	s.Nav = nav.New(win, fetcher, s.Sidebar, s.Prefs, opts.Nav)
	s.Search = search.NewPanel(win, search.NewClient(fetcher), opts.SearchDebounce)

	win.OnLoad(func(ctx context.Context, w *browser.Window) { s.boot() })
	win.OnPopState(func(ctx context.Context, _ *url.URL) {
		if _, err := s.Nav.PopState(ctx); err != nil {
			log.Printf("session[%s]: history traversal: %v", s.ID(), err)
		}
	})
	return s
}

// ID identifies the session's window in logs.
func (s *Session) ID() string { return s.Window.ID[:8] }

// Open performs a full load of href, as typing it in the address bar would.
func (s *Session) Open(ctx context.Context, href string) error {
	return s.Window.Assign(ctx, href)
}

// boot runs after every full load: capture the base, absolutize it in the
// document, and bring persisted state onto the fresh page.
func (s *Session) boot() {
	loc := s.Window.Location()
	var base *url.URL
	s.Window.Do(func(doc *dom.Document) {
		base = doc.BaseURL(loc)
		if base != nil {
			doc.SetBaseHref(base.String())
		}
		s.Prefs.Load()
		s.Prefs.Apply(doc)
		s.Visibility.Apply(doc)

		tree := sidebar.Build(doc)
		if tree.Active() == nil {
			tree.MarkCurrent(base, loc)
		}
		if err := s.Sidebar.Reconcile(tree); err != nil {
			log.Printf("session[%s]: saving sidebar state: %v", s.ID(), err)
		}
	})
	s.Nav.SetBase(base)
	if loc != nil && loc.Fragment != "" {
		s.Window.ScrollTo(loc.Fragment, false)
	}
}

// Follow acts on an href the way activating a link with it would.
func (s *Session) Follow(ctx context.Context, href string) (nav.Outcome, error) {
	switch s.Nav.Classify(href) {
	case nav.LinkAnchor:
		return s.Nav.ActivateAnchor(href)
	case nav.LinkInternal:
		return s.Nav.Activate(ctx, href)
	case nav.LinkNone:
		return nav.OutcomeNotIntercepted, fmt.Errorf("empty link")
	}
	return nav.OutcomeNotIntercepted, fmt.Errorf("%s leaves the book", href)
}

// Click dispatches a click on the element matching selector.
func (s *Session) Click(ctx context.Context, selector string, offsetX float64) (nav.Outcome, error) {
	return s.Nav.Click(ctx, selector, offsetX)
}

// Back and Forward traverse history.
func (s *Session) Back(ctx context.Context) bool    { return s.Window.Back(ctx) }
func (s *Session) Forward(ctx context.Context) bool { return s.Window.Forward(ctx) }

// SetFontSize selects a font size index.
func (s *Session) SetFontSize(idx int) error {
	var err error
	s.Window.Do(func(doc *dom.Document) { err = s.Prefs.SetFontSize(doc, idx) })
	return err
}

// StepFontSize moves the font size one entry up or down.
func (s *Session) StepFontSize(up bool) error {
	var err error
	s.Window.Do(func(doc *dom.Document) {
		if up {
			err = s.Prefs.Increase(doc)
		} else {
			err = s.Prefs.Decrease(doc)
		}
	})
	return err
}

// SetTheme selects a theme by name.
func (s *Session) SetTheme(name string) error {
	var err error
	s.Window.Do(func(doc *dom.Document) { err = s.Prefs.SetTheme(doc, name) })
	return err
}

// ToggleSidebar shows or hides the sidebar and reports whether it is hidden.
func (s *Session) ToggleSidebar() (bool, error) {
	var hidden bool
	var err error
	s.Window.Do(func(doc *dom.Document) { hidden, err = s.Visibility.Toggle(doc) })
	return hidden, err
}

// Scroll records a scroll to y and updates the table-of-contents highlight
// from estimated heading offsets. It returns the current section id.
func (s *Session) Scroll(y int) string {
	s.Window.SetScrollY(y)
	var current string
	s.Window.Do(func(doc *dom.Document) {
		current = nav.TrackTOC(doc, nav.EstimateOffsets(doc), y)
	})
	return current
}

// Chapter is a flattened sidebar entry.
type Chapter struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Href     string `json:"href,omitempty"`
	Depth    int    `json:"depth"`
	Active   bool   `json:"active,omitempty"`
	Expanded bool   `json:"expanded,omitempty"`
}

// Chapters lists the sidebar tree in document order.
func (s *Session) Chapters() []Chapter {
	var out []Chapter
	s.Window.Do(func(doc *dom.Document) {
		for _, n := range sidebar.Build(doc).Nodes() {
			depth := 0
			for p := n.Parent; p != nil; p = p.Parent {
				depth++
			}
			out = append(out, Chapter{
				ID:       n.ID,
				Title:    n.Title,
				Href:     n.Href,
				Depth:    depth,
				Active:   n.Active(),
				Expanded: n.Expanded(),
			})
		}
	})
	return out
}

// Snapshot is a serializable view of the session.
type Snapshot struct {
	Session       string           `json:"session"`
	Location      string           `json:"location"`
	Title         string           `json:"title"`
	State         string           `json:"state"`
	Active        string           `json:"active,omitempty"`
	FontSize      int              `json:"font_size"`
	Theme         string           `json:"theme"`
	SidebarHidden bool             `json:"sidebar_hidden"`
	History       int              `json:"history"`
	Viewport      browser.Viewport `json:"viewport"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Session:       s.ID(),
		State:         s.Nav.State().String(),
		FontSize:      prefs.FontSizes[s.Prefs.FontSize()],
		Theme:         s.Prefs.Theme().Name,
		SidebarHidden: s.Visibility.Hidden(),
		Viewport:      s.Window.Viewport(),
	}
	if loc := s.Window.Location(); loc != nil {
		snap.Location = loc.String()
	}
	entries, _ := s.Window.History()
	snap.History = len(entries)
	s.Window.Do(func(doc *dom.Document) {
		snap.Title = doc.Title()
		if n := sidebar.Build(doc).Active(); n != nil {
			snap.Active = n.ID
		}
	})
	return snap
}

// HTML serializes the displayed document.
func (s *Session) HTML() (string, error) {
	var out string
	var err error
	s.Window.Do(func(doc *dom.Document) { out, err = doc.HTML() })
	return out, err
}
