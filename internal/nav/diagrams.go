package nav

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/guidebook/internal/dom"
)

// DiagramRenderer renders diagram blocks in freshly spliced content.
type DiagramRenderer interface {
	Render(doc *dom.Document)
}

// DiagramRendererFunc adapts a function to DiagramRenderer.
type DiagramRendererFunc func(doc *dom.Document)

func (f DiagramRendererFunc) Render(doc *dom.Document) { f(doc) }

// MermaidMarker flags every unprocessed .mermaid block as processed and
// records its diagram type, leaving the source text in place for a real
// renderer to pick up.
var MermaidMarker = DiagramRendererFunc(func(doc *dom.Document) {
	doc.Find(dom.SelMermaid).Each(func(_ int, s *goquery.Selection) {
		if _, done := s.Attr("data-processed"); done {
			return
		}
		s.SetAttr("data-processed", "true")
		if fields := strings.Fields(s.Text()); len(fields) > 0 {
			s.SetAttr("data-diagram-type", fields[0])
		}
	})
})
