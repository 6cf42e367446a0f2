package domain

// Well-known group names.
const (
	// GroupSolicitation holds solicitation-intent terms (group 1).
	GroupSolicitation = "solicitation"
	// GroupRefusal holds refusal/decline terms (group 2).
	GroupRefusal = "refusal"
)

// RuleGroup is an ordered sequence of keyword rules. Rule order only affects
// the order of detected words in results.
type RuleGroup struct {
	Name  string
	rules []KeywordRule
}

// NewRuleGroup builds a group from a copy of rules.
func NewRuleGroup(name string, rules ...KeywordRule) RuleGroup {
	cp := make([]KeywordRule, len(rules))
	for i, r := range rules {
		cp[i] = r.Clone()
	}
	return RuleGroup{Name: name, rules: cp}
}

// Rules returns a copy of the group's rules.
func (g RuleGroup) Rules() []KeywordRule {
	out := make([]KeywordRule, len(g.rules))
	for i, r := range g.rules {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of rules.
func (g RuleGroup) Len() int { return len(g.rules) }
