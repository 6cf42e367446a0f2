// Package extractor builds the lowercase text corpus of a page from its
// visible text nodes, title and meta description.
package extractor

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/common/utils"
)

// googleFormSelectors are read first on Google Forms pages, whose question
// text is rendered late and often outside the regular flow.
var googleFormSelectors = []string{
	"[role=heading]",
	".freebirdFormviewerViewDescriptionText",
	".freebirdFormviewerComponentsQuestionBaseTitle",
	".freebirdFormviewerComponentsQuestionText",
	".freebirdFormviewerComponentsQuestionBaseHeader",
	".freebirdFormviewerViewNumberedItemContainer",
	".freebirdFormviewerComponentsQuestionRadioChoice",
	".freebirdFormviewerComponentsQuestionCheckboxChoice",
	".freebirdFormviewerComponentsQuestionTextRoot",
}

type Extractor struct {
	visibility Visibility
	logger     log.Logger
}

type Options struct {
	// Visibility defaults to NewAncestorVisibility().
	Visibility Visibility
	Logger     log.Logger
}

func New(opts Options) *Extractor {
	e := &Extractor{visibility: opts.Visibility, logger: opts.Logger}
	if e.visibility == nil {
		e.visibility = NewAncestorVisibility()
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	return e
}

// Extract returns the corpus for doc. It never fails: frame errors are
// logged and skipped, and a traversal panic yields whatever was collected.
func (e *Extractor) Extract(doc *dom.Document) (corpus string) {
	var parts []string
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(map[string]any{
				"url":       pageURL(doc),
				"fragments": len(parts),
				"panic":     fmt.Sprint(r),
			}, "text extraction aborted, using partial corpus")
		}
		corpus = strings.ToLower(strings.Join(parts, " "))
	}()

	if doc == nil || doc.Root == nil {
		return ""
	}

	if utils.IsGoogleForm(doc.Host(), doc.Path()) {
		for _, sel := range googleFormSelectors {
			for _, n := range dom.QuerySelectorAll(doc.Root, sel) {
				if t := dom.TextContent(n); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}

	e.collect(doc, &parts)

	if d := doc.MetaDescription(); d != "" {
		parts = append(parts, d)
	}
	if t := doc.Title(); t != "" {
		parts = append(parts, t)
	}
	return
}

// collect appends the visible text of doc's body and of each readable frame.
func (e *Extractor) collect(doc *dom.Document, parts *[]string) {
	dom.Walk(doc.Body(), func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return true
		}
		if !e.visibility.Visible(n) {
			return true
		}
		if t := trim(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return true
	})

	for _, f := range doc.Frames {
		if f.Err != nil {
			e.logger.Warn(map[string]any{
				"url":   pageURL(doc),
				"frame": f.URL,
				"error": f.Err,
			}, "skipping unreadable frame")
			continue
		}
		if f.Doc == nil || f.Doc.Root == nil {
			continue
		}
		e.collect(f.Doc, parts)
	}
}

func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func pageURL(doc *dom.Document) string {
	if doc == nil || doc.URL == nil {
		return ""
	}
	return doc.URL.String()
}
