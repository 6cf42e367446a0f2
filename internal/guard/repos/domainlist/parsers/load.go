package parsers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logpkg "github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// LoadFile reads a block-domain list from path. Files named "hosts" or with a
// ".hosts" extension use the hosts parser; anything else is a plain list.
func LoadFile(path string, logger logpkg.Logger, now time.Time) ([]domain.DomainRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domain list: %w", err)
	}
	defer f.Close()

	source := filepath.Base(path)
	if source == "hosts" || strings.EqualFold(filepath.Ext(path), ".hosts") {
		return ParseHostsFile(f, source, logger, now)
	}
	return ParsePlainList(f, source, logger, now)
}

// Merge concatenates rule lists, keeping the first rule for each name and kind.
func Merge(lists ...[]domain.DomainRule) []domain.DomainRule {
	seen := make(map[string]struct{})
	var out []domain.DomainRule
	for _, l := range lists {
		for _, r := range l {
			k := r.Name + "|" + r.Kind.String()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
