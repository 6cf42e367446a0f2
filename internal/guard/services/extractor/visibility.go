package extractor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/haukened/pageguard/internal/guard/common/dom"
)

// Visibility decides whether a text node contributes to the corpus.
type Visibility interface {
	Visible(n *html.Node) bool
}

// AncestorVisibility walks from the node's parent to the root and rejects the
// node when any ancestor is a selection list control, carries a class
// containing "agree", or resolves to a hidden style.
type AncestorVisibility struct {
	Styles StyleResolver
}

// NewAncestorVisibility returns the default predicate backed by InlineStyleResolver.
func NewAncestorVisibility() AncestorVisibility {
	return AncestorVisibility{Styles: InlineStyleResolver{}}
}

func (v AncestorVisibility) Visible(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.DataAtom == atom.Select || p.DataAtom == atom.Option {
			return false
		}
		if strings.Contains(strings.ToLower(dom.Attr(p, "class")), "agree") {
			return false
		}
		if v.Styles != nil && v.Styles.Resolve(p).Hidden() {
			return false
		}
	}
	return true
}
