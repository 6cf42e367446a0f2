// Package gate combines keyword detection results into a block decision and
// owns the exemption policy that runs before detection.
package gate

import (
	"fmt"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/utils"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// Verdict is the outcome of the exemption policy.
type Verdict uint8

const (
	// Proceed means detection must run.
	Proceed Verdict = iota
	// DomainBlocked means the host is on the block-domain list.
	DomainBlocked
	// TopPageSkip means the page is a top page without a non-search form.
	TopPageSkip
)

func (v Verdict) String() string {
	switch v {
	case Proceed:
		return "proceed"
	case DomainBlocked:
		return "domain_blocked"
	case TopPageSkip:
		return "top_page_skip"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// Exemption carries the verdict and, unless it is Proceed, the final decision.
type Exemption struct {
	Verdict  Verdict
	Decision domain.BlockDecision
}

// PageContext identifies the page a decision is made for.
type PageContext struct {
	URL  string
	Host string
	Apex string
	Path string
}

// NewPageContext derives the context of doc with a canonical host.
func NewPageContext(doc *dom.Document) PageContext {
	var pc PageContext
	if doc == nil {
		pc.Path = "/"
		return pc
	}
	if doc.URL != nil {
		pc.URL = doc.URL.String()
	}
	pc.Host = utils.CanonicalHost(doc.Host())
	pc.Path = doc.Path()
	if pc.Host != "" {
		pc.Apex = utils.GetApexDomain(pc.Host)
	}
	return pc
}

type Gate struct {
	domains DomainList
	forms   *SearchForms
}

func New(domains DomainList, forms *SearchForms) *Gate {
	if forms == nil {
		forms = NewSearchForms(nil)
	}
	return &Gate{domains: domains, forms: forms}
}

// CheckDomain returns a domain block for host, or a not-blocked decision.
func (g *Gate) CheckDomain(host string) domain.BlockDecision {
	host = utils.CanonicalHost(host)
	if g.domains == nil || host == "" {
		return domain.EmptyDecision()
	}
	d := g.domains.Decide(host)
	if !d.Blocked {
		return domain.EmptyDecision()
	}
	d.Reason = domain.ReasonDomain
	d.Host = host
	if d.Apex == "" {
		d.Apex = utils.GetApexDomain(host)
	}
	return d
}

// Exempt runs the exemption policy. The domain check always comes first, so
// a blocked domain wins over the top-page rule.
func (g *Gate) Exempt(doc *dom.Document) Exemption {
	pc := NewPageContext(doc)
	if d := g.CheckDomain(pc.Host); d.Blocked {
		d.URL = pc.URL
		return Exemption{Verdict: DomainBlocked, Decision: d}
	}
	if utils.IsTopPage(pc.Path) && !g.forms.HasNonSearchForm(doc) {
		return Exemption{
			Verdict: TopPageSkip,
			Decision: domain.BlockDecision{
				Reason: domain.ReasonTopPageExempt,
				URL:    pc.URL,
				Host:   pc.Host,
				Apex:   pc.Apex,
			},
		}
	}
	return Exemption{Verdict: Proceed}
}

// Decide blocks only when both groups detected at least one word. The
// detected words are reported either way.
func Decide(g1, g2 domain.DetectionResult, pc PageContext) domain.BlockDecision {
	d := domain.BlockDecision{
		Reason: domain.ReasonNone,
		URL:    pc.URL,
		Host:   pc.Host,
		Apex:   pc.Apex,
		Group1: g1,
		Group2: g2,
	}
	if g1.Any() && g2.Any() {
		d.Blocked = true
		d.Reason = domain.ReasonKeyword
	}
	return d
}
