package gate

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/utils"
)

// SearchForms classifies forms as site-search UIs by looking for identifier
// substrings in the form's action, class and id and in its fields' name, id,
// class and placeholder.
type SearchForms struct {
	identifiers []string
}

// NewSearchForms lowercases identifiers and drops empty ones.
func NewSearchForms(identifiers []string) *SearchForms {
	ids := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			ids = append(ids, id)
		}
	}
	return &SearchForms{identifiers: ids}
}

// HasNonSearchForm reports whether doc has at least one form that is not a
// search form. Google Forms pages always do.
func (s *SearchForms) HasNonSearchForm(doc *dom.Document) bool {
	if utils.IsGoogleForm(doc.Host(), doc.Path()) {
		return true
	}
	if doc == nil || doc.Root == nil {
		return false
	}
	base := baseURL(doc)
	for _, f := range documentForms(doc.Root) {
		if !s.IsSearchForm(doc.Root, f, base) {
			return true
		}
	}
	return false
}

// IsSearchForm classifies a single form element of the tree rooted at root.
func (s *SearchForms) IsSearchForm(root, form *html.Node, base *url.URL) bool {
	if s.matches(formAction(form, base)) || s.matches(dom.Attr(form, "class")) || s.matches(dom.Attr(form, "id")) {
		return true
	}
	for _, el := range listedElements(root, form) {
		if s.matches(dom.Attr(el, "name")) || s.matches(dom.Attr(el, "id")) || s.matches(dom.Attr(el, "class")) {
			return true
		}
		if el.DataAtom == atom.Input || el.DataAtom == atom.Textarea {
			if s.matches(dom.Attr(el, "placeholder")) {
				return true
			}
		}
	}
	return false
}

func (s *SearchForms) matches(v string) bool {
	if v == "" {
		return false
	}
	v = strings.ToLower(v)
	for _, id := range s.identifiers {
		if strings.Contains(v, id) {
			return true
		}
	}
	return false
}

// documentForms returns every form in tree order outside template content.
func documentForms(root *html.Node) []*html.Node {
	var forms []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Template:
			return false
		case atom.Form:
			forms = append(forms, n)
		}
		return true
	})
	return forms
}

// baseURL is the document URL, overridden by the first <base href>.
func baseURL(doc *dom.Document) *url.URL {
	base := doc.URL
	if b := dom.FindFirst(doc.Root, atom.Base); b != nil && dom.HasAttr(b, "href") {
		if ref, err := url.Parse(strings.TrimSpace(dom.Attr(b, "href"))); err == nil {
			if base != nil {
				return base.ResolveReference(ref)
			}
			return ref
		}
	}
	return base
}

// formAction mirrors form.action: a missing or empty action is the document
// URL, anything else is resolved against the base URL.
func formAction(form *html.Node, base *url.URL) string {
	action := strings.TrimSpace(dom.Attr(form, "action"))
	if action == "" {
		if base == nil {
			return ""
		}
		return base.String()
	}
	ref, err := url.Parse(action)
	if err != nil || base == nil {
		return action
	}
	return base.ResolveReference(ref).String()
}

var listedTags = map[atom.Atom]bool{
	atom.Button:   true,
	atom.Fieldset: true,
	atom.Input:    true,
	atom.Object:   true,
	atom.Output:   true,
	atom.Select:   true,
	atom.Textarea: true,
}

func isListed(n *html.Node) bool {
	if n.Type != html.ElementNode || !listedTags[n.DataAtom] {
		return false
	}
	return !(n.DataAtom == atom.Input && strings.EqualFold(dom.Attr(n, "type"), "image"))
}

// listedElements mirrors form.elements: listed descendants owned by the form
// plus listed elements elsewhere that point at it with a form attribute.
func listedElements(root, form *html.Node) []*html.Node {
	formID := dom.Attr(form, "id")
	var out []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Template {
			return false
		}
		if !isListed(n) {
			return true
		}
		if dom.HasAttr(n, "form") {
			if formID != "" && dom.Attr(n, "form") == formID {
				out = append(out, n)
			}
			return true
		}
		if isDescendant(n, form) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func isDescendant(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
