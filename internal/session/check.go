package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/nav"
	"github.com/ziadkadry99/guidebook/internal/progress"
)

// PageResult is how one chapter link behaved when activated.
type PageResult struct {
	Chapter Chapter     `json:"chapter"`
	Outcome nav.Outcome `json:"-"`
	Result  string      `json:"outcome"`
	Err     string      `json:"error,omitempty"`
}

// BrokenLink is an in-book link whose target could not be fetched.
type BrokenLink struct {
	Page string `json:"page"`
	Href string `json:"href"`
	Err  string `json:"error"`
}

// Report is the result of Check.
type Report struct {
	Pages  []PageResult `json:"pages"`
	Broken []BrokenLink `json:"broken,omitempty"`
}

// Failures counts chapters that did not splice plus broken links.
func (r Report) Failures() int {
	n := len(r.Broken)
	for _, p := range r.Pages {
		if p.Outcome != nav.OutcomeSpliced {
			n++
		}
	}
	return n
}

// Check opens start and activates every linked sidebar chapter in turn, the
// way a reader clicking through the book would. Internal links found in each
// spliced page are fetched once to find broken ones.
func (s *Session) Check(ctx context.Context, start string, rep progress.Reporter) (Report, error) {
	var report Report
	if err := s.Open(ctx, start); err != nil {
		return report, fmt.Errorf("opening %s: %w", start, err)
	}

	var links []Chapter
	for _, c := range s.Chapters() {
		if c.Href != "" {
			links = append(links, c)
		}
	}

	rep.Start(len(links))
	defer rep.Finish()

	checked := make(map[string]bool)
	for i, c := range links {
		rep.Update(i+1, c.Title)
		out, err := s.Follow(ctx, c.Href)
		page := PageResult{Chapter: c, Outcome: out, Result: out.String()}
		if err != nil {
			page.Err = err.Error()
		}
		report.Pages = append(report.Pages, page)

		if out != nav.OutcomeSpliced {
			// A fallback leaves the window wherever the full load got to.
			if err := s.Open(ctx, start); err != nil {
				return report, fmt.Errorf("reopening %s: %w", start, err)
			}
			continue
		}
		report.Broken = append(report.Broken, s.checkLinks(ctx, c.Href, checked)...)
	}
	return report, nil
}

func (s *Session) checkLinks(ctx context.Context, page string, checked map[string]bool) []BrokenLink {
	var hrefs []string
	s.Window.Do(func(doc *dom.Document) {
		doc.Content().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			hrefs = append(hrefs, href)
		})
	})

	base := s.Nav.Base()
	if base == nil {
		base = s.Window.Location()
	}
	if base == nil {
		return nil
	}

	var broken []BrokenLink
	for _, href := range hrefs {
		if s.Nav.Classify(href) != nav.LinkInternal {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		target := base.ResolveReference(ref)
		target.Fragment, target.RawFragment = "", ""
		key := target.String()
		if checked[key] {
			continue
		}
		checked[key] = true
		if _, err := s.fetcher.Fetch(ctx, key); err != nil {
			broken = append(broken, BrokenLink{Page: page, Href: href, Err: err.Error()})
		}
	}
	return broken
}
