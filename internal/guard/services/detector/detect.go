package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/haukened/pageguard/internal/guard/domain"
)

// Detect returns the base words of g that occur in corpus. The group is
// normalized first. A structured rule is detected when at least one
// occurrence of its word shares no byte with any occurrence of any of its
// exclusions; an excluded occurrence never suppresses other occurrences.
func Detect(corpus string, g domain.RuleGroup) domain.DetectionResult {
	return detectNormalized(corpus, Normalize(g).Rules())
}

func detectNormalized(corpus string, rules []domain.KeywordRule) domain.DetectionResult {
	var out domain.DetectionResult
	seen := make(map[string]struct{})
	for _, r := range rules {
		if r.Word == "" {
			continue
		}
		if _, dup := seen[r.Word]; dup {
			continue
		}
		var hit bool
		if r.Bare || len(r.Exclude) == 0 {
			hit = strings.Contains(corpus, r.Word)
		} else {
			hit = hasStandalone(corpus, r.Word, excludedSpans(corpus, r.Exclude))
		}
		if hit {
			seen[r.Word] = struct{}{}
			out = append(out, r.Word)
		}
	}
	return out
}

// span is a half-open byte range [start, end).
type span struct{ start, end int }

// excludedSpans lists every occurrence of every pattern, including
// overlapping ones.
func excludedSpans(corpus string, patterns []string) []span {
	var spans []span
	for _, p := range patterns {
		if p == "" {
			continue
		}
		eachOccurrence(corpus, p, func(i int) bool {
			spans = append(spans, span{i, i + len(p)})
			return true
		})
	}
	return spans
}

func hasStandalone(corpus, word string, excluded []span) bool {
	found := false
	eachOccurrence(corpus, word, func(i int) bool {
		if !intersects(span{i, i + len(word)}, excluded) {
			found = true
			return false
		}
		return true
	})
	return found
}

func intersects(s span, set []span) bool {
	for _, e := range set {
		if s.start < e.end && e.start < s.end {
			return true
		}
	}
	return false
}

// eachOccurrence calls fn with the byte offset of every occurrence of p in s,
// advancing one rune past each match start so overlapping matches are seen.
// fn returns false to stop.
func eachOccurrence(s, p string, fn func(int) bool) {
	from := 0
	for from <= len(s) {
		i := strings.Index(s[from:], p)
		if i < 0 {
			return
		}
		at := from + i
		if !fn(at) {
			return
		}
		_, w := utf8.DecodeRuneInString(s[at:])
		from = at + w
	}
}
