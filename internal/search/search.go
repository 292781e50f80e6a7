// Package search is the book's client-side search: it loads the prebuilt
// index once, scores substring matches and renders highlighted results.
package search

import (
	"sort"
	"unicode"
)

const (
	// MaxResults caps the rendered result list.
	MaxResults = 10
	// SnippetContext is the number of characters kept on each side of the
	// first content match.
	SnippetContext = 50
	// TitleScore and ContentScore are added when the query occurs in the
	// title and in the content respectively.
	TitleScore   = 10
	ContentScore = 1

	// titleOnlySnippet is how much leading content is shown for entries
	// that only matched on their title.
	titleOnlySnippet = 100
	ellipsis         = "..."
)

// Entry is one record of the index document.
type Entry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Path    string `json:"path"`
}

// Result is a qualifying entry with its score and display snippet.
type Result struct {
	Entry
	Score   int    `json:"score"`
	Snippet string `json:"snippet,omitempty"`
}

// Search scores every entry against query. Matching is case-insensitive
// substring search on title and content independently. Results are ordered
// by descending score, ties in index order, and truncated to MaxResults.
func Search(entries []Entry, query string) []Result {
	q := fold(query)
	if len(q) == 0 {
		return nil
	}
	var results []Result
	for _, e := range entries {
		score := 0
		if indexRunes(fold(e.Title), q) >= 0 {
			score += TitleScore
		}
		content := []rune(e.Content)
		at := indexRunes(fold(e.Content), q)
		if at >= 0 {
			score += ContentScore
		}
		if score == 0 {
			continue
		}
		r := Result{Entry: e, Score: score}
		if at >= 0 {
			r.Snippet = snippet(content, at, at+len(q))
		} else {
			r.Snippet = leading(content, titleOnlySnippet)
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

// fold lower-cases s rune by rune so indexes line up with []rune(s).
func fold(s string) []rune {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return r
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func snippet(content []rune, start, end int) string {
	from := max(start-SnippetContext, 0)
	to := min(end+SnippetContext, len(content))
	s := string(content[from:to])
	if from > 0 {
		s = ellipsis + s
	}
	if to < len(content) {
		s += ellipsis
	}
	return s
}

func leading(content []rune, n int) string {
	if len(content) <= n {
		return string(content)
	}
	return string(content[:n]) + ellipsis
}
