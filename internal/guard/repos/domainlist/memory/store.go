// Package memory provides the default in-process Store for block-domain rules.
package memory

import (
	"strings"
	"sync"

	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist"
)

type snapshot struct {
	exact   map[string]domain.DomainRule
	suffix  map[string]domain.DomainRule
	version uint64
	updated int64
}

// store holds the current snapshot behind a read-write lock. RebuildAll
// builds the replacement off-lock and swaps it in one assignment.
type store struct {
	mu   sync.RWMutex
	snap snapshot
}

// New returns an empty in-memory domainlist.Store.
func New() domainlist.Store {
	return &store{snap: snapshot{
		exact:  map[string]domain.DomainRule{},
		suffix: map[string]domain.DomainRule{},
	}}
}

func (s *store) GetFirstMatch(host string) (domain.DomainRule, bool, error) {
	if host == "" {
		return domain.DomainRule{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.snap.exact[host]; ok {
		return r, true, nil
	}
	for a := host; a != ""; {
		if r, ok := s.snap.suffix[a]; ok {
			return r, true, nil
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
	}
	return domain.DomainRule{}, false, nil
}

func (s *store) RebuildAll(rules []domain.DomainRule, version uint64, updatedUnix int64) error {
	next := snapshot{
		exact:   make(map[string]domain.DomainRule, len(rules)),
		suffix:  make(map[string]domain.DomainRule, len(rules)),
		version: version,
		updated: updatedUnix,
	}
	for _, r := range rules {
		if r.Name == "" {
			continue
		}
		switch r.Kind {
		case domain.DomainRuleExact:
			next.exact[r.Name] = r
		case domain.DomainRuleSuffix:
			next.suffix[r.Name] = r
		}
	}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

func (s *store) Stats() domainlist.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainlist.StoreStats{
		Version:     s.snap.version,
		UpdatedUnix: s.snap.updated,
		ExactKeys:   uint64(len(s.snap.exact)),
		SuffixKeys:  uint64(len(s.snap.suffix)),
	}
}

func (s *store) Close() error { return nil }
