package domain

import (
	"fmt"
	"strings"
	"time"
)

// DomainRuleKind defines how a block-domain entry matches hostnames.
//
// exact  - matches the host only
// suffix - matches the host and any subdomain (apex-inclusive suffix)
type DomainRuleKind uint8

const (
	// DomainRuleExact matches only the exact host.
	DomainRuleExact DomainRuleKind = iota
	// DomainRuleSuffix matches the host and all its subdomains.
	DomainRuleSuffix
)

// String returns a stable string representation of the rule kind.
func (k DomainRuleKind) String() string {
	switch k {
	case DomainRuleExact:
		return "exact"
	case DomainRuleSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("DomainRuleKind(%d)", k)
	}
}

// ParseDomainRuleKind converts "exact" or "suffix" (case-insensitive) into a kind.
func ParseDomainRuleKind(s string) (DomainRuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return DomainRuleExact, nil
	case "suffix":
		return DomainRuleSuffix, nil
	default:
		return 0, fmt.Errorf("unsupported DomainRuleKind: %q", s)
	}
}

// DomainRule is a single block-domain entry sourced from configuration or a list file.
//
// Name is expected to be canonical (see utils.CanonicalHost).
type DomainRule struct {
	Name    string
	Kind    DomainRuleKind
	Source  string
	AddedAt time.Time
}

// NewDomainRule constructs a DomainRule and validates its fields.
func NewDomainRule(name string, kind DomainRuleKind, source string, addedAt time.Time) (DomainRule, error) {
	r := DomainRule{
		Name:    strings.TrimSpace(name),
		Kind:    kind,
		Source:  strings.TrimSpace(source),
		AddedAt: addedAt,
	}
	if err := r.Validate(); err != nil {
		return DomainRule{}, err
	}
	return r, nil
}

// NewExactDomainRule is a convenience constructor for an exact rule.
func NewExactDomainRule(name, source string, addedAt time.Time) (DomainRule, error) {
	return NewDomainRule(name, DomainRuleExact, source, addedAt)
}

// NewSuffixDomainRule is a convenience constructor for a suffix rule.
func NewSuffixDomainRule(name, source string, addedAt time.Time) (DomainRule, error) {
	return NewDomainRule(name, DomainRuleSuffix, source, addedAt)
}

// Validate checks the rule for required fields and supported values.
func (r DomainRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if r.Source == "" {
		return fmt.Errorf("rule source must not be empty")
	}
	if r.AddedAt.IsZero() {
		return fmt.Errorf("rule addedAt must be set")
	}
	switch r.Kind {
	case DomainRuleExact, DomainRuleSuffix:
	default:
		return fmt.Errorf("unsupported DomainRuleKind: %d", r.Kind)
	}
	return nil
}

// Matches reports whether the canonical host is covered by the rule.
func (r DomainRule) Matches(host string) bool {
	if r.Kind == DomainRuleExact {
		return host == r.Name
	}
	return host == r.Name || strings.HasSuffix(host, "."+r.Name)
}

// IsExact returns true when the rule kind is exact.
func (r DomainRule) IsExact() bool { return r.Kind == DomainRuleExact }

// IsSuffix returns true when the rule kind is suffix.
func (r DomainRule) IsSuffix() bool { return r.Kind == DomainRuleSuffix }
