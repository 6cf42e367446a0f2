// Package evaluator runs one page through the exemption policy, the text
// extractor and both keyword detectors, then applies the AND gate.
package evaluator

import (
	"context"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/services/gate"
)

type Evaluator struct {
	policy    ExemptionPolicy
	extractor TextExtractor
	group1    KeywordDetector
	group2    KeywordDetector
	sink      Sink
	logger    log.Logger
}

type Options struct {
	Policy    ExemptionPolicy
	Extractor TextExtractor
	Group1    KeywordDetector
	Group2    KeywordDetector
	Sink      Sink
	Logger    log.Logger
}

func New(opts Options) *Evaluator {
	e := &Evaluator{
		policy:    opts.Policy,
		extractor: opts.Extractor,
		group1:    opts.Group1,
		group2:    opts.Group2,
		sink:      opts.Sink,
		logger:    opts.Logger,
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	return e
}

// Evaluate returns the decision for doc. A cancelled context yields a
// not-blocked decision; nothing on this path returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, doc *dom.Document) domain.BlockDecision {
	ex := e.policy.Exempt(doc)
	switch ex.Verdict {
	case gate.DomainBlocked:
		e.logger.Info(map[string]any{"url": ex.Decision.URL, "rule": ex.Decision.MatchedRule}, "page blocked by domain")
		e.publish(ctx, ex.Decision)
		return ex.Decision
	case gate.TopPageSkip:
		e.logger.Debug(map[string]any{"url": ex.Decision.URL}, "top page without qualifying form, detection skipped")
		return ex.Decision
	}

	if err := ctx.Err(); err != nil {
		e.logger.Debug(map[string]any{"error": err}, "evaluation cancelled")
		return domain.EmptyDecision()
	}

	pc := gate.NewPageContext(doc)
	corpus := e.extractor.Extract(doc)
	g1 := e.group1.Detect(corpus)
	g2 := e.group2.Detect(corpus)
	e.logger.Debug(map[string]any{
		"url":          pc.URL,
		"corpus_bytes": len(corpus),
		"matches":      map[string][]string{e.group1.Name(): g1, e.group2.Name(): g2},
	}, "keyword detection")

	d := gate.Decide(g1, g2, pc)
	if d.Blocked {
		e.logger.Info(map[string]any{"url": pc.URL, "group1": g1.String(), "group2": g2.String()}, "page blocked by keywords")
		e.publish(ctx, d)
	}
	return d
}

// CheckDomain is the load-time check run before a page has any content.
func (e *Evaluator) CheckDomain(ctx context.Context, host string) domain.BlockDecision {
	d := e.policy.CheckDomain(host)
	if d.Blocked {
		e.publish(ctx, d)
	}
	return d
}

func (e *Evaluator) publish(ctx context.Context, d domain.BlockDecision) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, d); err != nil {
		e.logger.Warn(map[string]any{"host": d.Host, "error": err}, "decision sink publish failed")
	}
}
