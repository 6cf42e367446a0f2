// Package transport exposes the evaluation pipeline over HTTP so pages
// captured elsewhere (a crawler, a browser extension) can be checked.
package transport

import (
	"context"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist"
)

// ServerTransport is the lifecycle every listener follows.
type ServerTransport interface {
	// Start binds the listener and serves until Stop or ctx cancellation.
	Start(ctx context.Context) error
	// Stop gracefully shuts the listener down.
	Stop() error
	// Address returns the bound address once started, else the configured one.
	Address() string
}

// PageEvaluator runs the detection pipeline on a captured document.
type PageEvaluator interface {
	Evaluate(ctx context.Context, doc *dom.Document) domain.BlockDecision
}

// StatsProvider reports domain list counters.
type StatsProvider interface {
	Stats() domainlist.RepoStats
}
