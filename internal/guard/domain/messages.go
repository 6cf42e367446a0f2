package domain

// BlockMessages are the operator-facing strings shown on the block overlay.
type BlockMessages struct {
	KeywordHeader      string
	KeywordInstruction string
	DetectedLabel      string
	Group1Label        string
	Group2Label        string
	DomainHeader       string
	DomainMessage      string
}

// DefaultBlockMessages returns the stock Japanese overlay text.
func DefaultBlockMessages() BlockMessages {
	return BlockMessages{
		KeywordHeader:      "こちらの企業は営業禁止です。",
		KeywordInstruction: "送付結果を「送付失敗」にして、送付失敗理由に「営業禁止」と記載してください",
		DetectedLabel:      "検出された単語:",
		Group1Label:        "語群1",
		Group2Label:        "語群2",
		DomainHeader:       "アクセスがブロックされました",
		DomainMessage:      "このサイトへのアクセスは制限されています",
	}
}

// Merge returns m with empty fields filled from fallback.
func (m BlockMessages) Merge(fallback BlockMessages) BlockMessages {
	pick := func(v, f string) string {
		if v != "" {
			return v
		}
		return f
	}
	return BlockMessages{
		KeywordHeader:      pick(m.KeywordHeader, fallback.KeywordHeader),
		KeywordInstruction: pick(m.KeywordInstruction, fallback.KeywordInstruction),
		DetectedLabel:      pick(m.DetectedLabel, fallback.DetectedLabel),
		Group1Label:        pick(m.Group1Label, fallback.Group1Label),
		Group2Label:        pick(m.Group2Label, fallback.Group2Label),
		DomainHeader:       pick(m.DomainHeader, fallback.DomainHeader),
		DomainMessage:      pick(m.DomainMessage, fallback.DomainMessage),
	}
}
