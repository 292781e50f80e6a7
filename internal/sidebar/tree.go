// Package sidebar models the book's chapter tree and keeps its expansion
// state consistent with the persisted map and the active page.
package sidebar

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/guidebook/internal/dom"
)

// Node is one chapter entry. Its active and expanded flags live on the
// li.chapter element as classes, so they travel with the markup.
type Node struct {
	ID       string
	Title    string
	Href     string
	Parent   *Node
	Children []*Node

	el *goquery.Selection
}

// IsLink reports whether the node navigates somewhere, as opposed to a
// group label.
func (n *Node) IsLink() bool { return n.Href != "" }

// HasChildren reports whether the node owns a sub-tree.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

func (n *Node) Active() bool { return n.el.HasClass("active") }

func (n *Node) SetActive(v bool) {
	if v {
		n.el.AddClass("active")
	} else {
		n.el.RemoveClass("active")
	}
}

func (n *Node) Expanded() bool { return n.el.HasClass("expanded") }

func (n *Node) SetExpanded(v bool) {
	if v {
		n.el.AddClass("expanded")
	} else {
		n.el.RemoveClass("expanded")
	}
}

// Contains reports whether other sits somewhere below n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p.Parent == n {
			return true
		}
	}
	return false
}

// Element returns the li.chapter element of the node.
func (n *Node) Element() *goquery.Selection { return n.el }

// Identify derives a chapter identity from its link target, or from its
// display text for group labels. Nodes sharing a target or a label collapse
// to the same identity.
func Identify(href, title string) string {
	if h := NormalizeHref(href); h != "" {
		return h
	}
	return "chapter-" + strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// NormalizeHref trims whitespace and any leading "./" segments.
func NormalizeHref(href string) string {
	h := strings.TrimSpace(href)
	for strings.HasPrefix(h, "./") {
		h = h[2:]
	}
	return h
}

// Tree is the chapter tree of one document, in document order.
type Tree struct {
	Roots []*Node
	nodes []*Node
}

// Build reads the chapter tree out of the document's sidebar.
func Build(doc *dom.Document) *Tree {
	t := &Tree{}
	t.Roots = t.walk(doc.Sidebar(), nil)
	return t
}

func (t *Tree) walk(list *goquery.Selection, parent *Node) []*Node {
	var out []*Node
	list.ChildrenFiltered(dom.SelChapter).Each(func(_ int, li *goquery.Selection) {
		n := &Node{Parent: parent, el: li}
		if a := li.ChildrenFiltered("a").First(); a.Length() > 0 {
			n.Href, _ = a.Attr("href")
			n.Title = strings.TrimSpace(a.Text())
		} else {
			n.Title = strings.TrimSpace(li.ChildrenFiltered("span.chapter-title, span").First().Text())
		}
		n.ID = Identify(n.Href, n.Title)
		t.nodes = append(t.nodes, n)
		n.Children = t.walk(li.ChildrenFiltered("ul"), n)
		out = append(out, n)
	})
	return out
}

// Nodes returns every node in document order.
func (t *Tree) Nodes() []*Node { return t.nodes }

// Active returns the first active node, or nil.
func (t *Tree) Active() *Node {
	for _, n := range t.nodes {
		if n.Active() {
			return n
		}
	}
	return nil
}

// Find returns the first node with the given identity.
func (t *Tree) Find(id string) *Node {
	for _, n := range t.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeFor returns the node whose element contains sel, or nil when sel is
// outside the tree.
func (t *Tree) NodeFor(sel *goquery.Selection) *Node {
	li := sel.Closest(dom.SelChapter)
	if li.Length() == 0 {
		return nil
	}
	target := li.Get(0)
	for _, n := range t.nodes {
		if n.el.Get(0) == target {
			return n
		}
	}
	return nil
}

// ClearActive drops the active flag from every node.
func (t *Tree) ClearActive() {
	for _, n := range t.nodes {
		n.SetActive(false)
	}
}

// MarkActive flags the first linked node accepted by match and returns it.
func (t *Tree) MarkActive(match func(href string) bool) *Node {
	for _, n := range t.nodes {
		if n.IsLink() && match(n.Href) {
			n.SetActive(true)
			return n
		}
	}
	return nil
}

// MarkCurrent flags the chapter whose link, resolved against base, points at
// page. Directory URLs match their index page.
func (t *Tree) MarkCurrent(base, page *url.URL) *Node {
	if page == nil {
		return nil
	}
	if base == nil {
		base = page
	}
	want := PagePath(page)
	return t.MarkActive(func(href string) bool {
		ref, err := url.Parse(NormalizeHref(href))
		if err != nil {
			return false
		}
		return PagePath(base.ResolveReference(ref)) == want
	})
}

// PagePath identifies the document a URL points at, ignoring query and
// fragment.
func PagePath(u *url.URL) string {
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	return u.Host + p
}
