package nav

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/sidebar"
)

// LinkKind classifies an href for interception.
type LinkKind int

const (
	// LinkNone is an empty href.
	LinkNone LinkKind = iota
	// LinkAnchor points at a fragment of the current page.
	LinkAnchor
	// LinkExternal leaves the book or is excluded by a passthrough pattern.
	LinkExternal
	// LinkInternal is a relative path inside the book.
	LinkInternal
)

// Classify decides how an href is handled.
func (c *Controller) Classify(href string) LinkKind {
	h := strings.TrimSpace(href)
	switch {
	case h == "":
		return LinkNone
	case strings.HasPrefix(h, "#"):
		return LinkAnchor
	case strings.HasPrefix(h, "//"):
		return LinkExternal
	}
	u, err := url.Parse(h)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return LinkExternal
	}
	if u.Path == "" {
		// "?q" style links reload the current page.
		return LinkExternal
	}
	p := sidebar.NormalizeHref(u.Path)
	for _, pattern := range c.opts.Passthrough {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return LinkExternal
		}
	}
	return LinkInternal
}

// decodeFragment returns the percent-decoded fragment of u.
func decodeFragment(u *url.URL) string {
	if u.Fragment != "" {
		return u.Fragment
	}
	if u.RawFragment == "" {
		return ""
	}
	if f, err := url.PathUnescape(u.RawFragment); err == nil {
		return f
	}
	return u.RawFragment
}

// Fragment extracts and decodes the fragment of href. Fragments that do not
// decode are returned as written.
func Fragment(href string) string {
	_, raw, ok := strings.Cut(href, "#")
	if !ok {
		return ""
	}
	if f, err := url.PathUnescape(raw); err == nil {
		return f
	}
	return raw
}

// ActivateAnchor handles a same-page fragment link: scroll the target into
// view smoothly and put the fragment in the address bar without a reload.
func (c *Controller) ActivateAnchor(href string) (Outcome, error) {
	frag := Fragment(href)
	loc := c.win.Location()
	if loc == nil {
		return OutcomeNotIntercepted, fmt.Errorf("anchor %q: nothing loaded", href)
	}
	id := ""
	c.win.Do(func(doc *dom.Document) {
		for _, candidate := range []string{frag, strings.TrimPrefix(href, "#")} {
			if candidate != "" && dom.ElementByID(doc.Root(), candidate).Length() > 0 {
				id = candidate
				return
			}
		}
	})
	if id != "" {
		c.win.ScrollTo(id, true)
	}
	loc.Fragment = frag
	loc.RawFragment = ""
	c.win.ReplaceState(loc)
	return OutcomeAnchor, nil
}

// Click dispatches a click on the first element matching selector, offsetX
// pixels from the left edge of that element's label.
func (c *Controller) Click(ctx context.Context, selector string, offsetX float64) (Outcome, error) {
	var (
		missing   bool
		toggled   bool
		href      string
		inSidebar bool
		isNavLink bool
		err       error
	)
	c.win.Do(func(doc *dom.Document) {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			missing = true
			return
		}
		inSidebar = el.Closest(dom.SelSidebar).Length() > 0
		if inSidebar {
			tree := sidebar.Build(doc)
			if node := tree.NodeFor(el); node != nil && c.sidebar != nil {
				var action sidebar.ClickAction
				action, err = c.sidebar.Click(tree, node, offsetX)
				switch action {
				case sidebar.ClickToggle:
					toggled = true
					return
				case sidebar.ClickNone:
					return
				}
				href = node.Href
				return
			}
		}
		a := linkOf(el)
		if a.Length() == 0 {
			return
		}
		href, _ = a.Attr("href")
		isNavLink = a.Is(dom.SelNavLinks)
	})
	switch {
	case missing:
		return OutcomeNotIntercepted, fmt.Errorf("click: nothing matches %q", selector)
	case toggled:
		return OutcomeToggled, err
	case err != nil:
		return OutcomeNotIntercepted, err
	}

	switch c.Classify(href) {
	case LinkAnchor:
		return c.ActivateAnchor(href)
	case LinkInternal:
		if inSidebar || isNavLink {
			return c.Activate(ctx, href)
		}
		if err := c.win.Assign(ctx, href); err != nil {
			log.Printf("nav: following %s: %v", href, err)
			return OutcomeFullLoad, err
		}
		return OutcomeFullLoad, nil
	}
	return OutcomeNotIntercepted, nil
}

func linkOf(el *goquery.Selection) *goquery.Selection {
	if el.Is("a[href]") {
		return el
	}
	return el.Closest("a[href]")
}
