// Package credibility scores web sources by domain reputation and content
// freshness.
package credibility

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Score components.
const (
	BaseScore       = 0.5
	TrustedBonus    = 0.3
	BlockedPenalty  = 0.4
	FreshnessWeight = 0.2
)

// Reputation classifies a registrable domain.
type Reputation string

const (
	ReputationTrusted Reputation = "trusted"
	ReputationBlocked Reputation = "blocked"
	ReputationUnknown Reputation = "unknown"
)

// DefaultTrustedDomains are registrable domains that earn the trusted bonus.
var DefaultTrustedDomains = []string{
	"wikipedia.org", "nature.com", "nytimes.com", "bbc.co.uk", "reuters.com", "nasa.gov",
}

// DefaultBlockedDomains are registrable domains that take the blocked penalty.
var DefaultBlockedDomains = []string{"clickbait.com", "fakenews.net"}

// Source is the subset of a web result the scorer reads.
type Source struct {
	URL       string
	Published string
}

// Scorer computes credibility in [0,1]. It is safe for concurrent use.
type Scorer struct {
	trusted map[string]struct{}
	blocked map[string]struct{}
	now     func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides time.Now for freshness calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a scorer over the given domain lists. Entries are
// reduced to their registrable domain, so "en.wikipedia.org" and
// "wikipedia.org" are equivalent.
func NewScorer(trusted, blocked []string, opts ...Option) *Scorer {
	s := &Scorer{
		trusted: domainSet(trusted),
		blocked: domainSet(blocked),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultScorer creates a scorer over the default domain lists.
func NewDefaultScorer(opts ...Option) *Scorer {
	return NewScorer(DefaultTrustedDomains, DefaultBlockedDomains, opts...)
}

func domainSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if reg, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
			d = reg
		}
		set[d] = struct{}{}
	}
	return set
}

// Score returns 0.5 + 0.3 (trusted) - 0.4 (blocked) + 0.2 * freshness,
// clamped to [0,1].
func (s *Scorer) Score(src Source) float64 {
	score := BaseScore
	switch s.Reputation(src.URL) {
	case ReputationTrusted:
		score += TrustedBonus
	case ReputationBlocked:
		score -= BlockedPenalty
	}
	score += FreshnessWeight * s.Freshness(src.Published)
	return clamp01(score)
}

// Reputation classifies rawURL by its registrable domain. A domain on both
// lists is blocked.
func (s *Scorer) Reputation(rawURL string) Reputation {
	domain := RegistrableDomain(rawURL)
	if domain == "" {
		return ReputationUnknown
	}
	if _, ok := s.blocked[domain]; ok {
		return ReputationBlocked
	}
	if _, ok := s.trusted[domain]; ok {
		return ReputationTrusted
	}
	return ReputationUnknown
}

// Freshness maps a publication date to [0,1]: under 30 days 1.0, under 180
// days 0.7, under 365 days 0.4, older 0.1. Missing or unparseable dates
// score 0.
func (s *Scorer) Freshness(published string) float64 {
	t, ok := parseDate(published)
	if !ok {
		return 0
	}
	days := int(s.now().Sub(t).Hours() / 24)
	switch {
	case days < 30:
		return 1.0
	case days < 180:
		return 0.7
	case days < 365:
		return 0.4
	default:
		return 0.1
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RegistrableDomain returns the eTLD+1 of rawURL's host ("bbc.co.uk" for
// "https://www.bbc.co.uk/news"), or "" if it has none.
func RegistrableDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
