package detector

import "github.com/haukened/pageguard/internal/guard/domain"

// Normalize merges a rule group so that each word appears at most once per
// rule shape. Bare strings keep their first occurrence. Structured rules
// sharing a word collapse into one rule whose exclusions are the union of
// every input list, in first-seen order. The input group is not modified.
func Normalize(g domain.RuleGroup) domain.RuleGroup {
	rules := g.Rules()
	out := make([]domain.KeywordRule, 0, len(rules))
	seenBare := make(map[string]struct{})
	structured := make(map[string]int) // word -> index in out

	for _, r := range rules {
		if r.Bare {
			if _, ok := seenBare[r.Word]; ok {
				continue
			}
			seenBare[r.Word] = struct{}{}
			out = append(out, r)
			continue
		}
		idx, ok := structured[r.Word]
		if !ok {
			structured[r.Word] = len(out)
			out = append(out, domain.KeywordRule{Word: r.Word, Exclude: unionExcludes(nil, r.Exclude)})
			continue
		}
		out[idx].Exclude = unionExcludes(out[idx].Exclude, r.Exclude)
	}
	return domain.NewRuleGroup(g.Name, out...)
}

func unionExcludes(base, add []string) []string {
	if len(add) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, e := range base {
		seen[e] = struct{}{}
	}
	for _, e := range add {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		base = append(base, e)
	}
	return base
}
