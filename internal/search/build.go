package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/guidebook/internal/dom"
)

// BuildIndex reads every page under root and returns one entry per page
// that has a content region. Paths are slash-separated and relative to root.
func BuildIndex(root string) ([]Entry, error) {
	fsys := os.DirFS(root)
	pages, err := doublestar.Glob(fsys, "**/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing pages in %s: %w", root, err)
	}
	sort.Strings(pages)

	var entries []Entry
	for _, p := range pages {
		f, err := fsys.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
		doc, err := dom.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}

		content := doc.Content()
		if content.Length() == 0 {
			continue
		}
		title := doc.Title()
		if title == "" {
			title = strings.TrimSuffix(path.Base(p), ".html")
		}
		entries = append(entries, Entry{
			Title:   title,
			Content: strings.Join(strings.Fields(content.Text()), " "),
			Path:    p,
		})
	}
	return entries, nil
}

// WriteIndex writes the entries as JSON to the given path.
func WriteIndex(entries []Entry, outputPath string) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
