package detector

import "github.com/haukened/pageguard/internal/guard/domain"

// Detector holds a group that was normalized once at construction.
type Detector struct {
	name  string
	rules []domain.KeywordRule
}

// New normalizes g and returns a Detector for it.
func New(g domain.RuleGroup) *Detector {
	n := Normalize(g)
	return &Detector{name: n.Name, rules: n.Rules()}
}

// Name returns the group name.
func (d *Detector) Name() string { return d.name }

// Detect runs the group against corpus.
func (d *Detector) Detect(corpus string) domain.DetectionResult {
	return detectNormalized(corpus, d.rules)
}
