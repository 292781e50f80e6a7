package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/search"
	"github.com/ziadkadry99/guidebook/internal/sidebar"
)

// handleSearchBook runs a substring search over the book index.
func (s *Server) handleSearchBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", search.MaxResults)
	if limit <= 0 || limit > search.MaxResults {
		limit = search.MaxResults
	}

	entries := s.index.Load(ctx, s.root+search.IndexFile)
	if len(entries) == 0 {
		return mcp.NewToolResultText("The book has no search index. Build it with its search index enabled."), nil
	}
	results := search.Search(entries, query)
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results for %q.", query)), nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleListChapters renders the sidebar tree of the front page.
func (s *Server) handleListChapters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.page(ctx, "index.html")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read the front page: %v", err)), nil
	}
	tree := sidebar.Build(doc)
	if len(tree.Nodes()) == 0 {
		return mcp.NewToolResultText("The front page has no chapter list."), nil
	}
	var b strings.Builder
	for _, n := range tree.Nodes() {
		depth := 0
		for p := n.Parent; p != nil; p = p.Parent {
			depth++
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		b.WriteString(n.Title)
		if n.IsLink() {
			fmt.Fprintf(&b, " (%s)", sidebar.NormalizeHref(n.Href))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleReadPage returns the title and content text of one page.
func (s *Server) handleReadPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	doc, err := s.page(ctx, path)
	if err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) {
			return mcp.NewToolResultError(fmt.Sprintf("No page at %q (%s).", path, se.Status)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read page: %v", err)), nil
	}
	content := doc.Content()
	if content.Length() == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not a book page.", path)), nil
	}
	return mcp.NewToolResultText("# " + doc.Title() + "\n\n" + collapseSpace(content.Text())), nil
}

func (s *Server) page(ctx context.Context, path string) (*dom.Document, error) {
	base, err := url.Parse(s.root)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(strings.TrimPrefix(sidebar.NormalizeHref(path), "/"))
	if err != nil {
		return nil, err
	}
	resp, err := s.fetcher.Fetch(ctx, base.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}
	return dom.Parse(bytes.NewReader(resp.Body))
}

func formatSearchResults(results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "### %d. %s (%s, score %d)\n", i+1, r.Title, r.Path, r.Score)
		if r.Snippet != "" {
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
