package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// CanonicalHost returns a hostname in canonical form:
// - trimmed of surrounding whitespace
// - lowercased
// - without trailing dots
// - without a port suffix
// - internationalized labels in their ASCII (punycode) form, as browsers report them
func CanonicalHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i+1:], "]") && strings.Count(host, ":") == 1 {
		host = host[:i]
	}
	host = strings.TrimRight(host, ".")
	if !isASCII(host) {
		if a, err := idna.Lookup.ToASCII(host); err == nil {
			host = a
		}
	}
	return host
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// IsSubdomainOrSelf reports whether host equals parent or is a subdomain of it.
// Both arguments are expected in canonical form.
func IsSubdomainOrSelf(host, parent string) bool {
	if parent == "" {
		return false
	}
	return host == parent || strings.HasSuffix(host, "."+parent)
}
