package domain

import "strings"

// DetectionResult is the ordered, de-duplicated list of base words that
// matched in one group for one corpus.
type DetectionResult []string

// Any reports whether at least one word was detected.
func (d DetectionResult) Any() bool { return len(d) > 0 }

// String joins the detected words with ", " as they are shown to operators.
func (d DetectionResult) String() string { return strings.Join(d, ", ") }

// MutationKind classifies a DOM mutation record.
type MutationKind string

const (
	MutationChildList     MutationKind = "childList"
	MutationCharacterData MutationKind = "characterData"
	MutationAttributes    MutationKind = "attributes"
)

// TriggersEvaluation reports whether the mutation kind can change visible text.
func (k MutationKind) TriggersEvaluation() bool {
	return k == MutationChildList || k == MutationCharacterData
}
