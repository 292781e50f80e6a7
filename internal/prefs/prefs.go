// Package prefs persists the reader's font size and colour theme and applies
// them to the content region of every page.
package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/persist"
)

// FontSizes is the ordered table of selectable sizes, in pixels.
var FontSizes = []int{12, 14, 16, 18, 20}

// DefaultFontSize is the index of the default entry in FontSizes.
const DefaultFontSize = 2

// Theme describes the colours forced onto tables and headings.
type Theme struct {
	Name       string
	Text       string
	Background string
	Heading    string
	Border     string
}

// Themes lists the selectable themes. The first is the default and forces
// no colours.
var Themes = []Theme{
	{Name: "white"},
	{Name: "sepia", Text: "#5b4636", Background: "#f3eacb", Heading: "#5b4636", Border: "#d6c9a3"},
	{Name: "night", Text: "#c9cdd3", Background: "#1c1f2b", Heading: "#e6e9ef", Border: "#3b4252"},
}

var (
	ErrFontSizeOutOfRange = errors.New("font size index out of range")
	ErrUnknownTheme       = errors.New("unknown theme")
)

const (
	keyFontSize = "font-size"
	keyTheme    = "theme"

	themeClassPrefix = "theme-"
	important        = " !important"
)

// ThemeByName returns the theme with the given name.
func ThemeByName(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Store holds the current preferences. It owns the "prefs" namespace.
type Store struct {
	store persist.Store

	mu       sync.Mutex
	fontSize int
	theme    Theme
}

// New creates a store with defaults. Call Load to read persisted values.
func New(store persist.Store) *Store {
	return &Store{
		store:    persist.Scope(store, "prefs"),
		fontSize: DefaultFontSize,
		theme:    Themes[0],
	}
}

// Load reads both preferences. Missing, out-of-range or unknown values fall
// back to the defaults.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSize = DefaultFontSize
	if idx, ok := persist.ReadInt(s.store, keyFontSize); ok && idx >= 0 && idx < len(FontSizes) {
		s.fontSize = idx
	}
	s.theme = Themes[0]
	if name, ok := s.store.Get(keyTheme); ok {
		if t, ok := ThemeByName(name); ok {
			s.theme = t
		}
	}
}

// FontSize returns the current index into FontSizes.
func (s *Store) FontSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fontSize
}

// Theme returns the current theme.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetFontSize selects the size at idx, persists it and applies it to doc.
// An index outside FontSizes is rejected and nothing changes.
func (s *Store) SetFontSize(doc *dom.Document, idx int) error {
	if idx < 0 || idx >= len(FontSizes) {
		return fmt.Errorf("%w: %d", ErrFontSizeOutOfRange, idx)
	}
	s.mu.Lock()
	s.fontSize = idx
	s.mu.Unlock()
	applyFontSize(doc, idx)
	return s.store.Set(keyFontSize, strconv.Itoa(idx))
}

// Increase moves one size up.
func (s *Store) Increase(doc *dom.Document) error { return s.SetFontSize(doc, s.FontSize()+1) }

// Decrease moves one size down.
func (s *Store) Decrease(doc *dom.Document) error { return s.SetFontSize(doc, s.FontSize()-1) }

// SetTheme selects the named theme, persists it and applies it to doc.
func (s *Store) SetTheme(doc *dom.Document, name string) error {
	t, ok := ThemeByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
	applyTheme(doc, t)
	return s.store.Set(keyTheme, t.Name)
}

// Reset forgets both persisted preferences and applies the defaults to doc.
func (s *Store) Reset(doc *dom.Document) error {
	s.mu.Lock()
	s.fontSize, s.theme = DefaultFontSize, Themes[0]
	s.mu.Unlock()
	s.Apply(doc)
	if err := s.store.Delete(keyFontSize); err != nil {
		return err
	}
	return s.store.Delete(keyTheme)
}

// Apply puts the current preferences on a freshly loaded page.
func (s *Store) Apply(doc *dom.Document) {
	s.mu.Lock()
	idx, t := s.fontSize, s.theme
	s.mu.Unlock()
	applyFontSize(doc, idx)
	applyTheme(doc, t)
}

// Reapply puts the current preferences on a newly spliced content region.
// Scoped styles do not survive a content replacement, so both are applied
// again element by element.
func (s *Store) Reapply(doc *dom.Document) {
	s.Apply(doc)
}

func applyFontSize(doc *dom.Document, idx int) {
	dom.SetStyleProperty(doc.Content(), "font-size", strconv.Itoa(FontSizes[idx])+"px")
	setDisabled(doc.Find(dom.SelFontReduce), idx == 0)
	setDisabled(doc.Find(dom.SelFontEnlarge), idx == len(FontSizes)-1)
}

func setDisabled(s *goquery.Selection, disabled bool) {
	if disabled {
		s.SetAttr("disabled", "disabled")
	} else {
		s.RemoveAttr("disabled")
	}
}

func applyTheme(doc *dom.Document, t Theme) {
	root := doc.Root()
	for _, other := range Themes {
		root.RemoveClass(themeClassPrefix + other.Name)
	}
	root.AddClass(themeClassPrefix + t.Name)

	content := doc.Content()
	cells := content.Find("th, td")
	headings := content.Find("h1, h2, h3, h4, h5, h6")
	if t.Name == Themes[0].Name {
		for _, prop := range []string{"color", "background-color", "border-color"} {
			cells.Each(func(_ int, c *goquery.Selection) { dom.RemoveStyleProperty(c, prop) })
		}
		headings.Each(func(_ int, h *goquery.Selection) { dom.RemoveStyleProperty(h, "color") })
		return
	}
	cells.Each(func(_ int, c *goquery.Selection) {
		dom.SetStyleProperty(c, "color", t.Text+important)
		dom.SetStyleProperty(c, "background-color", t.Background+important)
		dom.SetStyleProperty(c, "border-color", t.Border+important)
	})
	headings.Each(func(_ int, h *goquery.Selection) {
		dom.SetStyleProperty(h, "color", t.Heading+important)
	})
}
