package extractor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/haukened/pageguard/internal/guard/common/dom"
)

// Attributes written by the browser snapshot script carrying computed style.
const (
	AttrComputedDisplay    = "data-pageguard-display"
	AttrComputedVisibility = "data-pageguard-visibility"
	AttrComputedOpacity    = "data-pageguard-opacity"
)

// Style is the subset of an element's style that affects visibility.
type Style struct {
	Display    string
	Visibility string
	Opacity    string
}

// Hidden reports display:none, visibility:hidden or a zero opacity.
func (s Style) Hidden() bool {
	if s.Display == "none" || s.Visibility == "hidden" {
		return true
	}
	return isZeroOpacity(s.Opacity)
}

func isZeroOpacity(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f <= 0
}

// StyleResolver resolves the effective style of an element.
type StyleResolver interface {
	Resolve(n *html.Node) Style
}

// InlineStyleResolver derives style without a layout engine. Sources are
// applied in increasing precedence: user-agent defaults, the hidden
// attribute, the inline style attribute, then computed-style markers.
type InlineStyleResolver struct{}

// uaHidden are elements the user agent stylesheet renders with display:none.
var uaHidden = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Title:    true,
}

func (InlineStyleResolver) Resolve(n *html.Node) Style {
	var s Style
	if n.Type != html.ElementNode {
		return s
	}
	if uaHidden[n.DataAtom] && !dom.IsDeclarativeShadowRoot(n) {
		s.Display = "none"
	}
	if dom.HasAttr(n, "hidden") {
		s.Display = "none"
	}
	if v, ok := attrValue(n, "style"); ok {
		applyDeclarations(&s, v)
	}
	if v, ok := attrValue(n, AttrComputedDisplay); ok {
		s.Display = normalizeValue(v)
	}
	if v, ok := attrValue(n, AttrComputedVisibility); ok {
		s.Visibility = normalizeValue(v)
	}
	if v, ok := attrValue(n, AttrComputedOpacity); ok {
		s.Opacity = normalizeValue(v)
	}
	return s
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// applyDeclarations parses "prop: value; ..." and keeps the last
// declaration of each property, honouring !important.
func applyDeclarations(s *Style, decl string) {
	important := map[string]bool{}
	for _, d := range strings.Split(decl, ";") {
		prop, val, ok := strings.Cut(d, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = normalizeValue(val)
		imp := false
		if i := strings.Index(val, "!important"); i >= 0 {
			val = strings.TrimSpace(val[:i])
			imp = true
		}
		if important[prop] && !imp {
			continue
		}
		switch prop {
		case "display":
			s.Display = val
		case "visibility":
			s.Visibility = val
		case "opacity":
			s.Opacity = val
		default:
			continue
		}
		if imp {
			important[prop] = true
		}
	}
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
