// Package dom wraps a parsed book page and exposes the regions the runtime
// splices between navigations.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selectors of the page contract produced by the book builder.
const (
	SelContent      = "section.markdown-section"
	SelSidebar      = ".book-summary ul.summary"
	SelSidebarRoot  = ".book-summary"
	SelChapter      = "li.chapter"
	SelTOC          = ".page-toc"
	SelTOCContainer = ".page-inner"
	SelNavLinks     = "a.navigation-prev, a.navigation-next"
	SelNavContainer = ".book-body"
	SelMermaid      = ".mermaid"
	SelBook         = ".book"
	SelSearchInput  = "#book-search-input"
	SelSearchPanel  = "#book-search-results"
	SelFontReduce   = ".font-reduce"
	SelFontEnlarge  = ".font-enlarge"
	SelBase         = "base[href]"
)

const blankPage = `<!DOCTYPE html><html><head><title></title></head><body></body></html>`

// Document is one parsed page. It is not safe for concurrent use; the
// browser window serializes access to the document it displays.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	d, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Document{doc: d}, nil
}

// ParseString parses an HTML page held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Blank returns an empty page, the equivalent of a browser error page.
func Blank() *Document {
	d, _ := ParseString(blankPage)
	return d
}

// Find runs a selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Root returns the <html> element.
func (d *Document) Root() *goquery.Selection {
	return d.doc.Find("html").First()
}

// Book returns the element carrying book-level state classes, falling back
// to the root when the page has no .book wrapper.
func (d *Document) Book() *goquery.Selection {
	if b := d.doc.Find(SelBook).First(); b.Length() > 0 {
		return b
	}
	return d.Root()
}

// Content returns the main content region.
func (d *Document) Content() *goquery.Selection {
	return d.doc.Find(SelContent).First()
}

// Sidebar returns the chapter list of the sidebar.
func (d *Document) Sidebar() *goquery.Selection {
	return d.doc.Find(SelSidebar).First()
}

// TOC returns the table-of-contents region, possibly empty.
func (d *Document) TOC() *goquery.Selection {
	return d.doc.Find(SelTOC).First()
}

// NavLinks returns the previous/next controls, possibly empty.
func (d *Document) NavLinks() *goquery.Selection {
	return d.doc.Find(SelNavLinks)
}

// Title returns the text of the <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// SetTitle replaces the document title, creating the element if needed.
func (d *Document) SetTitle(title string) {
	t := d.doc.Find("title").First()
	if t.Length() == 0 {
		d.doc.Find("head").First().AppendHtml("<title></title>")
		t = d.doc.Find("title").First()
	}
	t.SetText(title)
}

// BaseHref returns the raw href of the <base> element, if any.
func (d *Document) BaseHref() (string, bool) {
	return d.doc.Find(SelBase).First().Attr("href")
}

// SetBaseHref writes the <base> element, creating it at the top of <head>.
func (d *Document) SetBaseHref(href string) {
	b := d.doc.Find("base").First()
	if b.Length() == 0 {
		d.doc.Find("head").First().PrependHtml(`<base href="` + html.EscapeString(href) + `">`)
		return
	}
	b.SetAttr("href", href)
}

// BaseURL resolves the document base against the location it was loaded from.
func (d *Document) BaseURL(location *url.URL) *url.URL {
	if location == nil {
		return nil
	}
	href, ok := d.BaseHref()
	if !ok || strings.TrimSpace(href) == "" {
		return location
	}
	u, err := location.Parse(strings.TrimSpace(href))
	if err != nil {
		return location
	}
	return u
}

// ElementByID finds an element by id inside scope. Ids are compared
// literally, so non-ASCII and punctuation-heavy heading ids work without
// selector escaping.
func ElementByID(scope *goquery.Selection, id string) *goquery.Selection {
	return scope.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

// HTML serializes the whole document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering page: %w", err)
		}
	}
	return buf.String(), nil
}
