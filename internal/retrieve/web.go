package retrieve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/Aman-CERP/hybridsearch/internal/credibility"
	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/websearch"
)

// WebSource is the Metadata.Source label of every web candidate.
const WebSource = "web"

// Web turns web search results into candidates. SparseScore is the
// reciprocal of the result's rank, and Credibility comes from the scorer.
type Web struct {
	name     string
	searcher websearch.Searcher
	scorer   *credibility.Scorer
}

var _ search.Retriever = (*Web)(nil)

// NewWeb creates a web retriever. A nil scorer uses the default domain lists.
func NewWeb(searcher websearch.Searcher, scorer *credibility.Scorer) (*Web, error) {
	if searcher == nil {
		return nil, ErrNilSearcher
	}
	if scorer == nil {
		scorer = credibility.NewDefaultScorer()
	}
	return &Web{name: "web", searcher: searcher, scorer: scorer}, nil
}

// Name implements search.Retriever.
func (w *Web) Name() string { return w.name }

// Retrieve runs a web search for query. A source filter other than "web"
// matches nothing, so the search is skipped.
func (w *Web) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]search.Candidate, error) {
	if k <= 0 || (sourceFilter != "" && sourceFilter != WebSource) {
		return []search.Candidate{}, nil
	}

	results, err := w.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	cands := make([]search.Candidate, 0, len(results))
	for i, r := range results {
		rank := i
		if r.Position > 0 {
			rank = r.Position - 1
		}
		content := r.Snippet
		if content == "" {
			content = r.Title
		}
		cands = append(cands, search.Candidate{
			ID:          WebID(r.URL, r.Title),
			Content:     content,
			SourceType:  search.SourceWeb,
			SparseScore: search.Float(1.0 / float64(rank+1)),
			Credibility: search.Float(w.scorer.Score(credibility.Source{URL: r.URL, Published: r.Published})),
			Metadata: search.Metadata{
				Title:     r.Title,
				URL:       r.URL,
				Source:    WebSource,
				Published: r.Published,
			},
		})
	}
	return cands, nil
}

// Close releases the searcher if it holds connections.
func (w *Web) Close() error {
	if c, ok := w.searcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WebID is the stable identity of a web result.
func WebID(url, title string) string {
	sum := sha256.Sum256([]byte(url + "\n" + title))
	return "web:" + hex.EncodeToString(sum[:])[:16]
}
