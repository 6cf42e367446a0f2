package domain

import "fmt"

// BlockReason explains a BlockDecision.
type BlockReason uint8

const (
	// ReasonNone means no rule fired.
	ReasonNone BlockReason = iota
	// ReasonDomain means the host is on the block-domain list.
	ReasonDomain
	// ReasonKeyword means both keyword groups matched.
	ReasonKeyword
	// ReasonTopPageExempt means detection was skipped for a top page without a qualifying form.
	ReasonTopPageExempt
)

func (r BlockReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonDomain:
		return "domain"
	case ReasonKeyword:
		return "keyword"
	case ReasonTopPageExempt:
		return "top_page_exempt"
	default:
		return fmt.Sprintf("BlockReason(%d)", r)
	}
}

// MarshalText encodes the reason by name.
func (r BlockReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// BlockDecision is the outcome of evaluating one page. Pure value type.
type BlockDecision struct {
	Blocked     bool            `json:"blocked"`
	Reason      BlockReason     `json:"reason"`
	URL         string          `json:"url,omitempty"`
	Host        string          `json:"host,omitempty"`
	Apex        string          `json:"apex,omitempty"`
	MatchedRule string          `json:"matched_rule,omitempty"` // domain rule name for domain blocks
	Source      string          `json:"source,omitempty"`       // source of the matched domain rule
	Kind        DomainRuleKind  `json:"-"`
	Group1      DetectionResult `json:"group1,omitempty"`
	Group2      DetectionResult `json:"group2,omitempty"`
}

// IsBlocked is a convenience accessor.
func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// EmptyDecision returns a not-blocked decision.
func EmptyDecision() BlockDecision { return BlockDecision{Blocked: false, Reason: ReasonNone} }
