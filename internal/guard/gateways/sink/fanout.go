package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/haukened/pageguard/internal/guard/domain"
)

// FanOut publishes to every sink in parallel.
type FanOut struct {
	sinks []Sink
}

func NewFanOut(sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks}
}

// Publish waits for every sink and joins their errors.
func (f *FanOut) Publish(ctx context.Context, d domain.BlockDecision) error {
	var wg sync.WaitGroup
	errs := make([]error, len(f.sinks))
	for i, s := range f.sinks {
		wg.Add(1)
		go func(idx int, s Sink) {
			defer wg.Done()
			errs[idx] = s.Publish(ctx, d)
		}(i, s)
	}
	wg.Wait()
	return errors.Join(errs...)
}
