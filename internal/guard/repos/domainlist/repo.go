package domainlist

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/common/utils"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// repository implements Repository by composing a Store, a Bloom filter
// (via factory) and a DecisionCache. Reads run bloom → cache → store and
// writes swap in a fresh snapshot.
type repository struct {
	mu      sync.RWMutex
	store   Store
	cache   DecisionCache
	bloom   BloomFilter
	factory BloomFactory
	fpRate  float64
	logger  log.Logger

	decisions  atomic.Uint64
	bloomSkips atomic.Uint64
	storeErrs  atomic.Uint64
}

// NewRepository constructs a Repository.
// fpRate is the target false-positive rate for the Bloom filter when rebuilding.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64, logger log.Logger) Repository {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &repository{store: store, cache: cache, factory: factory, fpRate: fpRate, logger: logger}
}

// Decide returns a BlockDecision for host.
// Policy: on internal errors, prefer Allow (not blocked).
func (r *repository) Decide(host string) domain.BlockDecision {
	cn := utils.CanonicalHost(host)
	if cn == "" {
		return domain.EmptyDecision()
	}
	r.decisions.Add(1)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.checkBloom(cn) {
		r.bloomSkips.Add(1)
		return domain.EmptyDecision()
	}
	if d, ok := r.cache.Get(cn); ok {
		return d
	}
	dec := r.checkStore(cn)
	r.cache.Put(cn, dec)
	return dec
}

// UpdateAll performs an atomic snapshot update across store, bloom, and cache.
func (r *repository) UpdateAll(rules []domain.DomainRule, version uint64, updatedUnix int64) error {
	if err := r.store.RebuildAll(rules, version, updatedUnix); err != nil {
		return err
	}

	var n uint64
	for _, ru := range rules {
		if ru.IsExact() || ru.IsSuffix() {
			n++
		}
	}
	bf := r.factory.New(n, r.fpRate)
	for _, ru := range rules {
		switch ru.Kind {
		case domain.DomainRuleExact:
			bf.Add([]byte(ru.Name))
		case domain.DomainRuleSuffix:
			bf.Add([]byte(ReverseHost(ru.Name)))
		}
	}

	r.mu.Lock()
	r.bloom = bf
	r.cache.Purge()
	r.mu.Unlock()

	r.logger.Info(map[string]any{"rules": len(rules), "version": version}, "domain list updated")
	return nil
}

func (r *repository) Stats() RepoStats {
	return RepoStats{
		Decisions:  r.decisions.Load(),
		BloomSkips: r.bloomSkips.Load(),
		StoreErrs:  r.storeErrs.Load(),
		Cache:      r.cache.Stats(),
		Store:      r.store.Stats(),
	}
}

// ReverseHost reverses the runes of a host. The store uses the same form
// for suffix anchors so Bloom keys stay aligned with store keys.
func ReverseHost(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// checkBloom returns true if we should consult the store (maybe-positive),
// or false if we can early-allow (definitely negative). With no filter
// loaded the store is always consulted. Caller holds r.mu.
func (r *repository) checkBloom(cn string) bool {
	if r.bloom == nil {
		return true
	}
	if r.bloom.MightContain([]byte(cn)) {
		return true
	}
	// reversed anchors for suffix candidates, most-specific → apex
	a := cn
	for a != "" {
		if r.bloom.MightContain([]byte(ReverseHost(a))) {
			return true
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
	}
	return false
}

// checkStore consults the authoritative store and materializes a decision.
// On any error or miss, returns Allow (EmptyDecision).
func (r *repository) checkStore(cn string) domain.BlockDecision {
	rule, ok, err := r.store.GetFirstMatch(cn)
	if err != nil {
		r.storeErrs.Add(1)
		r.logger.Warn(map[string]any{"host": cn, "error": err}, "domain store lookup failed, allowing")
		return domain.EmptyDecision()
	}
	if !ok {
		return domain.EmptyDecision()
	}
	return domain.BlockDecision{
		Blocked:     true,
		Reason:      domain.ReasonDomain,
		Host:        cn,
		Apex:        utils.GetApexDomain(cn),
		MatchedRule: rule.Name,
		Source:      rule.Source,
		Kind:        rule.Kind,
	}
}
