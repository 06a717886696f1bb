package credibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewDefaultScorer(WithClock(func() time.Time { return testNow }))
}

func daysAgo(n int) string {
	return testNow.AddDate(0, 0, -n).Format("2006-01-02")
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://en.wikipedia.org/wiki/Climate", want: "wikipedia.org"},
		{url: "https://www.bbc.co.uk/news", want: "bbc.co.uk"},
		{url: "http://NASA.GOV./earth", want: "nasa.gov"},
		{url: "reuters.com/world", want: "reuters.com"},
		{url: "", want: ""},
		{url: "https://localhost:8080/x", want: ""},
		{url: "://bad", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrableDomain(tt.url))
		})
	}
}

func TestScorer_Reputation(t *testing.T) {
	s := newTestScorer()

	assert.Equal(t, ReputationTrusted, s.Reputation("https://www.nature.com/articles/1"))
	assert.Equal(t, ReputationBlocked, s.Reputation("https://news.clickbait.com/a"))
	assert.Equal(t, ReputationUnknown, s.Reputation("https://example.org"))
	assert.Equal(t, ReputationUnknown, s.Reputation(""))
}

func TestScorer_BlockedWinsOverTrusted(t *testing.T) {
	s := NewScorer([]string{"example.com"}, []string{"www.example.com"})

	assert.Equal(t, ReputationBlocked, s.Reputation("https://example.com"))
}

func TestScorer_Freshness(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name      string
		published string
		want      float64
	}{
		{name: "today", published: daysAgo(0), want: 1.0},
		{name: "29 days", published: daysAgo(29), want: 1.0},
		{name: "30 days", published: daysAgo(30), want: 0.7},
		{name: "179 days", published: daysAgo(179), want: 0.7},
		{name: "180 days", published: daysAgo(180), want: 0.4},
		{name: "364 days", published: daysAgo(364), want: 0.4},
		{name: "365 days", published: daysAgo(365), want: 0.1},
		{name: "rfc3339", published: "2025-05-20T08:00:00Z", want: 1.0},
		{name: "missing", published: "", want: 0},
		{name: "unparseable", published: "last week", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Freshness(tt.published), 1e-9)
		})
	}
}

func TestScorer_Score(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name string
		src  Source
		want float64
	}{
		{name: "unknown, no date", src: Source{URL: "https://example.org"}, want: 0.5},
		{name: "trusted, fresh", src: Source{URL: "https://www.reuters.com/x", Published: daysAgo(1)}, want: 1.0},
		{name: "trusted, stale", src: Source{URL: "https://www.reuters.com/x", Published: daysAgo(400)}, want: 0.82},
		{name: "blocked, no date", src: Source{URL: "https://fakenews.net/x"}, want: 0.1},
		{name: "blocked, fresh", src: Source{URL: "https://fakenews.net/x", Published: daysAgo(3)}, want: 0.3},
		{name: "unknown, 90 days", src: Source{URL: "https://example.org", Published: daysAgo(90)}, want: 0.64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.src), 1e-9)
		})
	}
}

func TestScorer_ScoreIsBounded(t *testing.T) {
	s := NewScorer([]string{"example.com"}, nil, WithClock(func() time.Time { return testNow }))

	got := s.Score(Source{URL: "https://example.com", Published: daysAgo(0)})

	assert.LessOrEqual(t, got, 1.0)
	assert.GreaterOrEqual(t, got, 0.0)
}
