// Package sink publishes block decisions to operators and downstream systems.
package sink

import (
	"context"

	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// Sink receives block decisions.
type Sink interface {
	Publish(ctx context.Context, d domain.BlockDecision) error
}

// LogSink writes each decision as a structured log entry.
type LogSink struct {
	logger log.Logger
}

func NewLogSink(logger log.Logger) *LogSink {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, d domain.BlockDecision) error {
	fields := map[string]any{
		"reason": d.Reason.String(),
		"url":    d.URL,
		"host":   d.Host,
		"apex":   d.Apex,
	}
	if d.Reason == domain.ReasonDomain {
		fields["rule"] = d.MatchedRule
		fields["source"] = d.Source
	} else {
		fields["group1"] = d.Group1.String()
		fields["group2"] = d.Group2.String()
	}
	s.logger.Info(fields, "block decision")
	return nil
}
