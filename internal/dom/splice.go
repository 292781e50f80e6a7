package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReplaceInner replaces the inner markup of target with that of source.
func ReplaceInner(target, source *goquery.Selection) error {
	if target.Length() == 0 {
		return fmt.Errorf("replace inner: target region missing")
	}
	inner, err := source.Html()
	if err != nil {
		return fmt.Errorf("replace inner: %w", err)
	}
	target.SetHtml(inner)
	return nil
}

// ReplaceRegion swaps the current elements of a region for clones of the
// fetched ones. The containers around them are left untouched. Stale
// elements are removed when the fetched page has none; when the current
// page has none the clones are appended to container.
func ReplaceRegion(current, fetched, container *goquery.Selection) {
	if fetched.Length() == 0 {
		current.Remove()
		return
	}
	clone := fetched.Clone()
	if anchor := current.First(); anchor.Length() > 0 {
		anchor.BeforeSelection(clone)
		current.Remove()
		return
	}
	if container.Length() > 0 {
		container.First().AppendSelection(clone)
	}
}

// StyleProperty returns the inline style value of prop on the first element.
func StyleProperty(s *goquery.Selection, prop string) string {
	raw, _ := s.First().Attr("style")
	for _, d := range parseStyle(raw) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyleProperty sets an inline style property on every element.
func SetStyleProperty(s *goquery.Selection, prop, value string) {
	s.Each(func(_ int, el *goquery.Selection) {
		raw, _ := el.Attr("style")
		decls := parseStyle(raw)
		found := false
		for i := range decls {
			if decls[i].prop == prop {
				decls[i].value = value
				found = true
			}
		}
		if !found {
			decls = append(decls, declaration{prop: prop, value: value})
		}
		el.SetAttr("style", formatStyle(decls))
	})
}

// RemoveStyleProperty clears an inline style property on every element and
// drops the style attribute once it is empty.
func RemoveStyleProperty(s *goquery.Selection, prop string) {
	s.Each(func(_ int, el *goquery.Selection) {
		raw, ok := el.Attr("style")
		if !ok {
			return
		}
		var kept []declaration
		for _, d := range parseStyle(raw) {
			if d.prop != prop {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			el.RemoveAttr("style")
			return
		}
		el.SetAttr("style", formatStyle(kept))
	})
}

type declaration struct {
	prop  string
	value string
}

func parseStyle(raw string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(raw, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.prop + ": " + d.value
	}
	return strings.Join(parts, "; ")
}
