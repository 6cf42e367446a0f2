// Package dom holds the parsed page model shared by the extractor and the
// gate, plus small helpers over golang.org/x/net/html trees.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a snapshot of one page: its URL, the parsed tree and any
// same-origin iframe documents captured with it.
type Document struct {
	URL    *url.URL
	Root   *html.Node
	Frames []Frame
}

// Frame is an embedded document. Err is set when the frame could not be read,
// for example a cross-origin iframe.
type Frame struct {
	URL string
	Doc *Document
	Err error
}

// Parse reads an HTML document served from rawURL.
func Parse(rawURL string, r io.Reader) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html for %s: %w", rawURL, err)
	}
	return &Document{URL: u, Root: root}, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(rawURL, src string) (*Document, error) {
	return Parse(rawURL, strings.NewReader(src))
}

// Host returns the lowercased hostname without port, or "" when the URL is unset.
func (d *Document) Host() string {
	if d == nil || d.URL == nil {
		return ""
	}
	return strings.ToLower(d.URL.Hostname())
}

// Path returns the URL path, defaulting to "/".
func (d *Document) Path() string {
	if d == nil || d.URL == nil || d.URL.Path == "" {
		return "/"
	}
	return d.URL.Path
}

// Body returns the body element, or the root when there is none.
func (d *Document) Body() *html.Node {
	if b := FindFirst(d.Root, atom.Body); b != nil {
		return b
	}
	return d.Root
}

// Title returns the text of the first title element with whitespace
// stripped and collapsed, as document.title does.
func (d *Document) Title() string {
	t := FindFirst(d.Root, atom.Title)
	if t == nil {
		return ""
	}
	return strings.Join(strings.Fields(TextContent(t)), " ")
}

// MetaDescription returns the content of the first <meta name="description">.
func (d *Document) MetaDescription() string {
	for _, m := range FindAll(d.Root, atom.Meta) {
		if Attr(m, "name") == "description" {
			return Attr(m, "content")
		}
	}
	return ""
}
