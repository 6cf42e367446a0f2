package browser

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/domain"
)

//go:embed scripts/observer.js
var observerJS string

//go:embed scripts/disconnect.js
var disconnectJS string

//go:embed scripts/snapshot.js
var snapshotJS string

//go:embed scripts/render.js
var renderJS string

// bindingName is the Runtime binding the observer script reports through.
const bindingName = "__pageguard_mutations"

type snapshotFrame struct {
	URL   string `json:"url"`
	HTML  string `json:"html"`
	Error string `json:"error"`
}

type snapshotPayload struct {
	URL    string          `json:"url"`
	HTML   string          `json:"html"`
	Frames []snapshotFrame `json:"frames"`
}

// decodeSnapshot turns the snapshot script result into a Document.
func decodeSnapshot(raw string) (*dom.Document, error) {
	var p snapshotPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	doc, err := dom.ParseString(p.URL, p.HTML)
	if err != nil {
		return nil, err
	}
	for _, f := range p.Frames {
		fr := dom.Frame{URL: f.URL}
		if f.Error != "" {
			fr.Err = errors.New(f.Error)
		} else {
			fr.Doc, fr.Err = dom.ParseString(f.URL, f.HTML)
		}
		doc.Frames = append(doc.Frames, fr)
	}
	return doc, nil
}

// decodeMutations parses one binding payload, a JSON array of record types.
func decodeMutations(payload string) ([]domain.MutationKind, error) {
	var kinds []domain.MutationKind
	if err := json.Unmarshal([]byte(payload), &kinds); err != nil {
		return nil, fmt.Errorf("decode mutation batch: %w", err)
	}
	return kinds, nil
}

type renderPayload struct {
	Header   string   `json:"header"`
	Message  string   `json:"message"`
	Detected string   `json:"detected,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// newRenderPayload picks the domain or keyword overlay text for d.
func newRenderPayload(d domain.BlockDecision, m domain.BlockMessages) renderPayload {
	if d.Reason == domain.ReasonDomain {
		return renderPayload{Header: m.DomainHeader, Message: m.DomainMessage}
	}
	return renderPayload{
		Header:   m.KeywordHeader,
		Message:  m.KeywordInstruction,
		Detected: m.DetectedLabel,
		Groups: []string{
			m.Group1Label + ": " + d.Group1.String(),
			m.Group2Label + ": " + d.Group2.String(),
		},
	}
}
