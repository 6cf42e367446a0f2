package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/repos/rules"
	"github.com/haukened/pageguard/internal/guard/services/detector"
	"github.com/haukened/pageguard/internal/guard/services/extractor"
	"github.com/haukened/pageguard/internal/guard/services/gate"
)

type mockSink struct{ mock.Mock }

func (m *mockSink) Publish(ctx context.Context, d domain.BlockDecision) error {
	return m.Called(ctx, d).Error(0)
}

type suffixList []string

func (l suffixList) Decide(host string) domain.BlockDecision {
	for _, n := range l {
		r := domain.DomainRule{Name: n, Kind: domain.DomainRuleSuffix, Source: "test", AddedAt: time.Now()}
		if r.Matches(host) {
			return domain.BlockDecision{Blocked: true, Reason: domain.ReasonDomain, Host: host, MatchedRule: n, Source: "test"}
		}
	}
	return domain.EmptyDecision()
}

func newEvaluator(t *testing.T, sink Sink) *Evaluator {
	t.Helper()
	rs, err := rules.Load("")
	require.NoError(t, err)
	return New(Options{
		Policy:    gate.New(suffixList(rs.BlockDomains), gate.NewSearchForms(rs.SearchIdentifiers)),
		Extractor: extractor.New(extractor.Options{}),
		Group1:    detector.New(rs.Group1),
		Group2:    detector.New(rs.Group2),
		Sink:      sink,
	})
}

func parse(t *testing.T, rawURL, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(rawURL, src)
	require.NoError(t, err)
	return doc
}

const contactForm = `<form action="/send"><input name="company"><textarea name="body"></textarea></form>`

func TestEvaluate_KeywordBlock(t *testing.T) {
	sink := &mockSink{}
	sink.On("Publish", mock.Anything, mock.MatchedBy(func(d domain.BlockDecision) bool {
		return d.Blocked && d.Reason == domain.ReasonKeyword
	})).Return(nil).Once()

	ev := newEvaluator(t, sink)
	doc := parse(t, "https://corp.example.co.jp/contact", `<body><p>営業のご連絡はお断りしております。</p>`+contactForm+`</body>`)
	d := ev.Evaluate(context.Background(), doc)

	assert.True(t, d.Blocked)
	assert.Equal(t, domain.DetectionResult{"営業"}, d.Group1)
	assert.Equal(t, domain.DetectionResult{"断り"}, d.Group2)
	assert.Equal(t, "corp.example.co.jp", d.Host)
	assert.Equal(t, "example.co.jp", d.Apex)
	sink.AssertExpectations(t)
}

func TestEvaluate_ExcludedOccurrenceDoesNotBlock(t *testing.T) {
	sink := &mockSink{}
	ev := newEvaluator(t, sink)
	doc := parse(t, "https://corp.example.com/contact", `<body><p>営業時間は9時から。お断りします。</p>`+contactForm+`</body>`)
	d := ev.Evaluate(context.Background(), doc)

	assert.False(t, d.Blocked)
	assert.Empty(t, d.Group1)
	assert.Equal(t, domain.DetectionResult{"断り"}, d.Group2)
	sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestEvaluate_DomainBlockSkipsDetection(t *testing.T) {
	sink := &mockSink{}
	sink.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	ev := newEvaluator(t, sink)

	d := ev.Evaluate(context.Background(), parse(t, "https://www.tsukulink.net/", `<body>nothing</body>`))
	assert.True(t, d.Blocked)
	assert.Equal(t, domain.ReasonDomain, d.Reason)
	assert.Equal(t, "tsukulink.net", d.MatchedRule)
	assert.Equal(t, "https://www.tsukulink.net/", d.URL)
	sink.AssertExpectations(t)
}

func TestEvaluate_TopPageSkip(t *testing.T) {
	ev := newEvaluator(t, nil)
	doc := parse(t, "https://example.com/index.html",
		`<body><p>営業お断り</p><form action="/search"><input name="q"></form></body>`)
	d := ev.Evaluate(context.Background(), doc)
	assert.False(t, d.Blocked)
	assert.Equal(t, domain.ReasonTopPageExempt, d.Reason)
}

func TestEvaluate_TopPageWithContactForm(t *testing.T) {
	ev := newEvaluator(t, nil)
	doc := parse(t, "https://example.com/", `<body><p>営業お断り</p>`+contactForm+`</body>`)
	assert.True(t, ev.Evaluate(context.Background(), doc).Blocked)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	ev := newEvaluator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := parse(t, "https://example.com/contact", `<body><p>営業お断り</p></body>`)
	assert.False(t, ev.Evaluate(ctx, doc).Blocked)
}

func TestEvaluate_SinkErrorKeepsDecision(t *testing.T) {
	sink := &mockSink{}
	sink.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	ev := newEvaluator(t, sink)
	doc := parse(t, "https://example.com/contact", `<body><p>営業お断り</p></body>`)
	assert.True(t, ev.Evaluate(context.Background(), doc).Blocked)
}

func TestCheckDomain(t *testing.T) {
	sink := &mockSink{}
	sink.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	ev := newEvaluator(t, sink)

	assert.True(t, ev.CheckDomain(context.Background(), "sales.carcon.co.jp").Blocked)
	assert.False(t, ev.CheckDomain(context.Background(), "example.com").Blocked)
	sink.AssertNumberOfCalls(t, "Publish", 1)
}
