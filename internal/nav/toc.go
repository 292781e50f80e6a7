package nav

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/guidebook/internal/dom"
)

// TOCScrollMargin is how far above the viewport top a heading may sit and
// still count as the current section.
const TOCScrollMargin = 20

const headingSelector = "h1[id], h2[id], h3[id], h4[id], h5[id], h6[id]"

// TrackTOC highlights the table-of-contents link of the section the reader
// is in. offsets maps heading ids to their vertical position in the page.
// It returns the id of the current section, empty above the first heading.
func TrackTOC(doc *dom.Document, offsets map[string]int, scrollY int) string {
	current := ""
	doc.Content().Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		id, _ := h.Attr("id")
		if top, ok := offsets[id]; ok && top <= scrollY+TOCScrollMargin {
			current = id
		}
	})
	doc.TOC().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if current != "" && strings.HasPrefix(href, "#") && Fragment(href) == current {
			a.AddClass("active")
		} else {
			a.RemoveClass("active")
		}
	})
	return current
}

const (
	estimatedLineHeight = 24
	estimatedLineLength = 80
	estimatedHeadingGap = 48
)

// EstimateOffsets approximates heading positions from the amount of text
// before each heading, for callers with no real layout.
func EstimateOffsets(doc *dom.Document) map[string]int {
	offsets := map[string]int{}
	y := 0
	doc.Content().Children().Each(func(_ int, block *goquery.Selection) {
		if block.Is(headingSelector) {
			id, _ := block.Attr("id")
			offsets[id] = y
			y += estimatedHeadingGap
			return
		}
		block.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
			id, _ := h.Attr("id")
			offsets[id] = y
		})
		lines := utf8.RuneCountInString(strings.TrimSpace(block.Text()))/estimatedLineLength + 1
		y += lines * estimatedLineHeight
	})
	return offsets
}
