package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// QuerySelectorAll returns the nodes under root matching a simple selector.
// Supported forms are tag, .class, #id, [attr], [attr=val] and combinations
// of them, with spaces as the descendant combinator. Matches are unique and
// in document order.
func QuerySelectorAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}
	matches := matchSimple(root, parseSimpleSelector(parts[0]), true)
	for _, p := range parts[1:] {
		sel := parseSimpleSelector(p)
		seen := make(map[*html.Node]struct{})
		var next []*html.Node
		for _, m := range matches {
			for _, n := range matchSimple(m, sel, false) {
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				next = append(next, n)
			}
		}
		matches = next
	}
	return matches
}

type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
	hasVal  bool
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector
	if i := strings.IndexByte(sel, '['); i >= 0 {
		attr := strings.TrimSuffix(sel[i+1:], "]")
		sel = sel[:i]
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			s.attrKey = attr[:eq]
			s.attrVal = strings.Trim(attr[eq+1:], `"'`)
			s.hasVal = true
		} else {
			s.attrKey = attr
		}
	}
	if i := strings.IndexByte(sel, '#'); i >= 0 {
		s.id = sel[i+1:]
		sel = sel[:i]
	}
	if i := strings.IndexByte(sel, '.'); i >= 0 {
		s.class = sel[i+1:]
		sel = sel[:i]
	}
	s.tag = strings.ToLower(sel)
	return s
}

func matchSimple(root *html.Node, s simpleSelector, includeRoot bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if (includeRoot || n != root) && s.matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && Attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !HasClass(n, s.class) {
		return false
	}
	if s.attrKey != "" {
		if !HasAttr(n, s.attrKey) {
			return false
		}
		if s.hasVal && Attr(n, s.attrKey) != s.attrVal {
			return false
		}
	}
	return true
}

// HasClass reports whether class is one of n's space-separated classes.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
