package search

import (
	"html"
	"net/url"
	"strings"
)

// Render produces the result panel markup. Every piece of result text is
// escaped before the query is highlighted, so neither the index nor the
// query can inject markup. Paths are resolved against base when given.
func Render(results []Result, query string, base *url.URL) string {
	var b strings.Builder
	if len(results) == 0 {
		b.WriteString(`<div class="search-noresults">No results for "`)
		b.WriteString(html.EscapeString(query))
		b.WriteString(`"</div>`)
		return b.String()
	}
	hl := highlighter(query)
	b.WriteString(`<ul class="search-results-list">`)
	for _, r := range results {
		b.WriteString(`<li class="search-results-item"><h3><a href="`)
		b.WriteString(html.EscapeString(resultHref(r.Path, base)))
		b.WriteString(`">`)
		b.WriteString(hl(r.Title))
		b.WriteString(`</a></h3>`)
		if r.Snippet != "" {
			b.WriteString(`<p>`)
			b.WriteString(hl(r.Snippet))
			b.WriteString(`</p>`)
		}
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// Highlight escapes text and wraps every occurrence of query in <mark>,
// folding case the same way Search does so whatever matched is marked.
func Highlight(text, query string) string {
	return highlighter(query)(text)
}

func highlighter(query string) func(string) string {
	q := fold(query)
	if len(q) == 0 {
		return html.EscapeString
	}
	// Matching runs on the raw text and each piece is escaped on output,
	// so a query like "<b>" marks only literal "<b>" in the text.
	return func(text string) string {
		raw := []rune(text)
		folded := fold(text)
		var b strings.Builder
		last := 0
		for last+len(q) <= len(raw) {
			at := indexRunes(folded[last:], q)
			if at < 0 {
				break
			}
			at += last
			b.WriteString(html.EscapeString(string(raw[last:at])))
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(string(raw[at : at+len(q)])))
			b.WriteString("</mark>")
			last = at + len(q)
		}
		b.WriteString(html.EscapeString(string(raw[last:])))
		return b.String()
	}
}

func resultHref(path string, base *url.URL) string {
	if base == nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return base.ResolveReference(ref).String()
}
