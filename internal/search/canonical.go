package search

import (
	"strconv"
	"strings"
)

const keySep = "\x1f"

// NormalizeQuery lower-cases q and collapses runs of whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Canonicalize returns the cache key of a validated request. Requests that
// differ only in case, whitespace or floating noise below 0.005 in
// MinCredibility share a key. EnableCache is not part of the key.
// Free-text fields are quoted so no query or filter can contain the
// separator.
func Canonicalize(req SearchRequest) string {
	minCred := 0.0
	if req.MinCredibility != nil {
		minCred = *req.MinCredibility
	}
	return strings.Join([]string{
		strconv.Quote(NormalizeQuery(req.Query)),
		string(req.SearchType),
		strconv.Itoa(req.K),
		strconv.Quote(req.SourceFilter),
		strconv.FormatFloat(minCred, 'f', 2, 64),
		strconv.Quote(strings.ToLower(req.CitationStyle)),
	}, keySep)
}
