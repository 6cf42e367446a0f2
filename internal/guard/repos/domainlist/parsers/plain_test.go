package parsers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
)

func TestParsePlainList_Basics(t *testing.T) {
	input := "\uFEFF# comment at top\n" +
		"Tsukulink.NET   \n" +
		"tsukulink.net.#inline comment\n" +
		"\n" +
		"\tcarcon.co.jp.\n" +
		"=only.example.com\n" +
		"*.wild.example.com\n" +
		".root.example.org\n" +
		"not-a-host\n" +
		"user@example.com\n" +
		"例え.テスト\n" +
		"=tsukulink.net\n"

	now := time.Unix(1723550000, 0)
	got, err := ParsePlainList(strings.NewReader(input), "list.txt", log.NewNoopLogger(), now)
	require.NoError(t, err)

	type nk struct {
		name string
		kind domain.DomainRuleKind
	}
	var names []nk
	for _, r := range got {
		names = append(names, nk{r.Name, r.Kind})
		assert.Equal(t, "list.txt", r.Source)
		assert.True(t, r.AddedAt.Equal(now))
	}
	assert.Equal(t, []nk{
		{"tsukulink.net", domain.DomainRuleSuffix},
		{"carcon.co.jp", domain.DomainRuleSuffix},
		{"only.example.com", domain.DomainRuleExact},
		{"wild.example.com", domain.DomainRuleSuffix},
		{"root.example.org", domain.DomainRuleSuffix},
		{"xn--r8jz45g.xn--zckzah", domain.DomainRuleSuffix},
		{"tsukulink.net", domain.DomainRuleExact},
	}, names)
}

func TestParsePlainList_BlankSourceSkipsEntries(t *testing.T) {
	got, err := ParsePlainList(strings.NewReader("example.com\n"), "", log.NewNoopLogger(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestParsePlainList_ScanError(t *testing.T) {
	_, err := ParsePlainList(errReader{}, "x", log.NewNoopLogger(), time.Now())
	assert.Error(t, err)
}
