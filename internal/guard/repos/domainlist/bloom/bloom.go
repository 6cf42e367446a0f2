// Package bloom provides the domain list prefilter. Keys are canonical hosts
// for exact rules and reversed names for suffix anchors.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/pageguard/internal/guard/repos/domainlist"
)

const defaultFPRate = 0.01

type factory struct{}

// NewFactory returns a BloomFactory backed by bits-and-blooms estimates.
func NewFactory() domainlist.BloomFactory { return factory{} }

// New sizes a filter for capacity keys. A zero capacity is treated as one and
// an fpRate outside (0, 1) falls back to 1%.
func (factory) New(capacity uint64, fpRate float64) domainlist.BloomFilter {
	if capacity == 0 {
		capacity = 1
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = defaultFPRate
	}
	return &filter{bf: bitsbloom.NewWithEstimates(uint(capacity), fpRate)}
}

// filter guards the underlying bitset; a rebuild may Add while lookups run.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}
