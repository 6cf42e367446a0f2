package domainlist

import "github.com/haukened/pageguard/internal/guard/domain"

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds a filter sized for capacity keys at the target FP rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches block decisions by canonical host with basic metrics.
type DecisionCache interface {
	Get(host string) (domain.BlockDecision, bool)
	Put(host string, d domain.BlockDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// Store is the authoritative index of block-domain rules.
//   - GetFirstMatch: the exact rule for host, else the most specific suffix rule
//   - RebuildAll: atomically replace all rules and metadata
//   - Stats: counts and metadata; Close: release resources
type Store interface {
	GetFirstMatch(host string) (domain.DomainRule, bool, error)
	RebuildAll(rules []domain.DomainRule, version uint64, updatedUnix int64) error
	Stats() StoreStats
	Close() error
}

// Repository is the composition layer that wires bloom → cache → store.
// Decide returns a value-type BlockDecision for the host.
// UpdateAll rebuilds the store, refreshes the Bloom filter and clears the cache.
type Repository interface {
	Decide(host string) domain.BlockDecision
	UpdateAll(rules []domain.DomainRule, version uint64, updatedUnix int64) error
	Stats() RepoStats
}
