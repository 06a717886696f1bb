// Package websearch queries a Serper-compatible web search API.
package websearch

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Defaults for the Serper client.
const (
	DefaultEndpoint      = "https://google.serper.dev/search"
	DefaultRatePerMinute = 10
	DefaultTimeout       = 10 * time.Second
	DefaultNumResults    = 5

	// maxNumResults is the largest page Serper serves.
	maxNumResults = 100
)

// Result is one organic web result.
type Result struct {
	Title   string
	URL     string
	Snippet string
	// Published is a YYYY-MM-DD date when the API reported one.
	Published string
	// Position is the 1-based rank reported by the API.
	Position int
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup tags and collapses the remaining whitespace.
func StripHTML(s string) string {
	return strings.Join(strings.Fields(htmlTag.ReplaceAllString(s, "")), " ")
}

var publishedLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// normalizeDate converts the date formats Serper returns to YYYY-MM-DD.
// Relative dates ("3 days ago") and unknown formats yield "".
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
