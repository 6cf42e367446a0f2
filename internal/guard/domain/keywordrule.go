package domain

import "strings"

// KeywordRule is a base word plus the substrings whose occurrences suppress
// matches of that word. A bare rule has no exclusions and is kept distinct
// from a structured rule with an empty exclude set, so that normalization
// can apply the separate de-duplication policies of each.
type KeywordRule struct {
	Word    string
	Exclude []string
	Bare    bool
}

// Bare returns a bare-string rule.
func Bare(word string) KeywordRule {
	return KeywordRule{Word: word, Bare: true}
}

// Structured returns a rule with exclusions. A nil exclude list is valid.
func Structured(word string, exclude ...string) KeywordRule {
	return KeywordRule{Word: word, Exclude: exclude}
}

// Lower returns a copy of the rule with the word and every exclusion lowercased.
func (r KeywordRule) Lower() KeywordRule {
	out := KeywordRule{Word: strings.ToLower(r.Word), Bare: r.Bare}
	if len(r.Exclude) > 0 {
		out.Exclude = make([]string, len(r.Exclude))
		for i, e := range r.Exclude {
			out.Exclude[i] = strings.ToLower(e)
		}
	}
	return out
}

// Clone returns a deep copy of the rule.
func (r KeywordRule) Clone() KeywordRule {
	out := r
	if r.Exclude != nil {
		out.Exclude = append([]string(nil), r.Exclude...)
	}
	return out
}
