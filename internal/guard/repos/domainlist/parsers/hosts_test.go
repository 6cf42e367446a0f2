package parsers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
)

func TestParseHostsFile(t *testing.T) {
	input := `# hosts
127.0.0.1 localhost
0.0.0.0 ads.example.com tracker.example.com # inline
0.0.0.0 *.wild.example.com .dot.example.com
0.0.0.0
:: ADS.example.com.
0.0.0.0 sales.tsukulink.net
`
	now := time.Unix(100, 0)
	got, err := ParseHostsFile(strings.NewReader(input), "hosts", log.NewNoopLogger(), now)
	require.NoError(t, err)

	var names []string
	for _, r := range got {
		assert.Equal(t, domain.DomainRuleExact, r.Kind)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"ads.example.com", "tracker.example.com", "sales.tsukulink.net"}, names)
}

func TestParseHostsFile_ScanError(t *testing.T) {
	_, err := ParseHostsFile(errReader{}, "hosts", log.NewNoopLogger(), time.Now())
	assert.Error(t, err)
}
