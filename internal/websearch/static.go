package websearch

import (
	"context"
	"fmt"
)

// StaticSearcher serves canned results. It stands in for the live API when
// no key is configured and in tests.
type StaticSearcher struct {
	results []Result
}

var _ Searcher = (*StaticSearcher)(nil)

// NewStaticSearcher serves results for every query. With nil results it
// generates three placeholder results that echo the query.
func NewStaticSearcher(results []Result) *StaticSearcher {
	return &StaticSearcher{results: results}
}

// Search returns up to num results.
func (s *StaticSearcher) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if num <= 0 {
		num = DefaultNumResults
	}

	results := s.results
	if results == nil {
		results = mockResults(query)
	}
	if len(results) > num {
		results = results[:num]
	}
	out := make([]Result, len(results))
	copy(out, results)
	return out, nil
}

func mockResults(query string) []Result {
	return []Result{
		{
			Title:    fmt.Sprintf("Mock Result 1 for '%s'", query),
			URL:      "https://example.com/result1",
			Snippet:  fmt.Sprintf("This is a mock search result for the query '%s'. It provides relevant information about the topic.", query),
			Position: 1,
		},
		{
			Title:    fmt.Sprintf("Mock Result 2 for '%s'", query),
			URL:      "https://example.com/result2",
			Snippet:  fmt.Sprintf("Another mock search result related to '%s'. This helps test the system functionality.", query),
			Position: 2,
		},
		{
			Title:    fmt.Sprintf("Mock Result 3 for '%s'", query),
			URL:      "https://example.com/result3",
			Snippet:  fmt.Sprintf("A third mock result for '%s' to demonstrate multiple search results.", query),
			Position: 3,
		},
	}
}
