package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/pageguard/internal/guard/domain"
)

type fakeDomains struct {
	rules []domain.DomainRule
	calls int
}

func (f *fakeDomains) Decide(host string) domain.BlockDecision {
	f.calls++
	for _, r := range f.rules {
		if r.Matches(host) {
			return domain.BlockDecision{Blocked: true, Reason: domain.ReasonDomain, MatchedRule: r.Name, Source: r.Source, Kind: r.Kind}
		}
	}
	return domain.EmptyDecision()
}

func newFakeDomains(t *testing.T, names ...string) *fakeDomains {
	t.Helper()
	f := &fakeDomains{}
	for _, n := range names {
		r, err := domain.NewSuffixDomainRule(n, "test", time.Now())
		if err != nil {
			t.Fatalf("rule: %v", err)
		}
		f.rules = append(f.rules, r)
	}
	return f
}

func TestExempt_DomainBlockPrecedence(t *testing.T) {
	g := New(newFakeDomains(t, "tsukulink.net"), NewSearchForms(testIdentifiers))
	doc := parse(t, "https://sub.tsukulink.net/", `<form action="/search"></form>`)

	ex := g.Exempt(doc)
	assert.Equal(t, DomainBlocked, ex.Verdict)
	assert.True(t, ex.Decision.Blocked)
	assert.Equal(t, domain.ReasonDomain, ex.Decision.Reason)
	assert.Equal(t, "tsukulink.net", ex.Decision.MatchedRule)
	assert.Equal(t, "sub.tsukulink.net", ex.Decision.Host)
	assert.Equal(t, "tsukulink.net", ex.Decision.Apex)
	assert.Equal(t, "https://sub.tsukulink.net/", ex.Decision.URL)
	assert.Empty(t, ex.Decision.Group1)
}

func TestExempt_TopPageSearchOnly(t *testing.T) {
	g := New(newFakeDomains(t), NewSearchForms(testIdentifiers))
	ex := g.Exempt(parse(t, "https://example.co.jp/", `<form action="/search"><input name="q"></form>`))
	assert.Equal(t, TopPageSkip, ex.Verdict)
	assert.False(t, ex.Decision.Blocked)
	assert.Equal(t, domain.ReasonTopPageExempt, ex.Decision.Reason)
}

func TestExempt_TopPageWithContactFormProceeds(t *testing.T) {
	g := New(newFakeDomains(t), NewSearchForms(testIdentifiers))
	ex := g.Exempt(parse(t, "https://example.co.jp/index.php",
		`<form action="/search"></form><form action="/contact"><input name="email"></form>`))
	assert.Equal(t, Proceed, ex.Verdict)
}

func TestExempt_InnerPageProceeds(t *testing.T) {
	g := New(newFakeDomains(t), NewSearchForms(testIdentifiers))
	ex := g.Exempt(parse(t, "https://example.co.jp/company", `<p>no forms</p>`))
	assert.Equal(t, Proceed, ex.Verdict)
}

func TestCheckDomain(t *testing.T) {
	fd := newFakeDomains(t, "carcon.co.jp")
	g := New(fd, nil)
	d := g.CheckDomain("WWW.Carcon.co.jp.")
	assert.True(t, d.Blocked)
	assert.Equal(t, "www.carcon.co.jp", d.Host)
	assert.Equal(t, "carcon.co.jp", d.Apex)

	assert.False(t, g.CheckDomain("example.com").Blocked)
	calls := fd.calls
	assert.False(t, g.CheckDomain("").Blocked)
	assert.Equal(t, calls, fd.calls)

	assert.False(t, New(nil, nil).CheckDomain("carcon.co.jp").Blocked)
}

func TestDecide_TwoGroupAndGate(t *testing.T) {
	pc := PageContext{URL: "https://example.com/contact", Host: "example.com"}

	d := Decide(domain.DetectionResult{"営業"}, nil, pc)
	assert.False(t, d.Blocked)
	assert.Equal(t, domain.ReasonNone, d.Reason)
	assert.Equal(t, domain.DetectionResult{"営業"}, d.Group1)

	d = Decide(domain.DetectionResult{"営業"}, domain.DetectionResult{"ございません"}, pc)
	assert.True(t, d.Blocked)
	assert.Equal(t, domain.ReasonKeyword, d.Reason)
	assert.Equal(t, "example.com", d.Host)

	assert.False(t, Decide(nil, domain.DetectionResult{"断り"}, pc).Blocked)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "domain_blocked", DomainBlocked.String())
	assert.Equal(t, "top_page_skip", TopPageSkip.String())
	assert.Equal(t, "Verdict(9)", Verdict(9).String())
}

func TestNewPageContext(t *testing.T) {
	pc := NewPageContext(parse(t, "https://Shop.Example.co.uk:8080/a/b", `<p></p>`))
	assert.Equal(t, "shop.example.co.uk", pc.Host)
	assert.Equal(t, "example.co.uk", pc.Apex)
	assert.Equal(t, "/a/b", pc.Path)

	assert.Equal(t, PageContext{Path: "/"}, NewPageContext(nil))
}
