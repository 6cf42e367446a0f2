package parsers

import (
	"strings"
	"unicode"

	"github.com/haukened/pageguard/internal/guard/common/utils"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// ruleKindFromRaw decides the DomainRuleKind from the raw token. Block
// domains cover subdomains unless the entry is marked exact with "=".
func ruleKindFromRaw(raw string) domain.DomainRuleKind {
	if strings.HasPrefix(raw, "=") {
		return domain.DomainRuleExact
	}
	return domain.DomainRuleSuffix
}

// normalizeDomainName strips the "=", "*." and "." markers and canonicalizes the rest.
func normalizeDomainName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "=")
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return utils.CanonicalHost(name)
}

// isValidHost checks the canonical (ASCII) form of a host:
//   - at most 253 characters
//   - at least two labels
//   - every label 1-63 characters of letters, digits, '-' or '_', not starting or ending with '-'
func isValidHost(name string) bool {
	if len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !isHostRune(r) {
				return false
			}
		}
	}
	return true
}

func isHostRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_')
}

func stripLineBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// classifyLine reports whether the trimmed line is empty or a full-line comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}
