package evaluator

import (
	"context"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/services/gate"
)

// Sink receives every block decision. Errors are logged by the caller and
// never change the decision.
type Sink interface {
	Publish(ctx context.Context, d domain.BlockDecision) error
}

// TextExtractor turns a document into the lowercase corpus the detectors scan.
type TextExtractor interface {
	Extract(doc *dom.Document) string
}

// KeywordDetector reports the base words of one rule group found in a corpus.
type KeywordDetector interface {
	Name() string
	Detect(corpus string) domain.DetectionResult
}

// ExemptionPolicy decides whether a page is blocked by domain or skipped
// before any text is extracted.
type ExemptionPolicy interface {
	Exempt(doc *dom.Document) gate.Exemption
	CheckDomain(host string) domain.BlockDecision
}
