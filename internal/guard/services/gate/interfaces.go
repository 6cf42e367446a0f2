package gate

import "github.com/haukened/pageguard/internal/guard/domain"

// DomainList answers whether a canonical host is on the block-domain list.
type DomainList interface {
	Decide(host string) domain.BlockDecision
}
