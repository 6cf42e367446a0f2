package monitor

import (
	"context"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// Page is the live page a Monitor drives. Mutation batches are delivered
// by the page owner through Monitor.Mutations once Observe has been called.
type Page interface {
	URL() string
	Snapshot(ctx context.Context) (*dom.Document, error)
	Observe(ctx context.Context) error
	Disconnect(ctx context.Context) error
	RenderBlock(ctx context.Context, d domain.BlockDecision) error
}

// Evaluator runs the detection pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, doc *dom.Document) domain.BlockDecision
	CheckDomain(ctx context.Context, host string) domain.BlockDecision
}
