package retrieve

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/websearch"
)

type testDoc struct {
	content string
	meta    search.Metadata
}

// mapLookup is an in-memory DocumentLookup.
type mapLookup map[string]testDoc

func (m mapLookup) Lookup(id string) (string, search.Metadata, bool) {
	d, ok := m[id]
	return d.content, d.meta, ok
}

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                  { return 4 }
func (f *fakeEmbedder) ModelName() string                { return "fake" }
func (f *fakeEmbedder) Available(_ context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                     { return nil }

// countingSearcher records calls to a wrapped web searcher.
type countingSearcher struct {
	inner websearch.Searcher
	calls atomic.Int32
	err   error
}

func (c *countingSearcher) Search(ctx context.Context, query string, num int) ([]websearch.Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Search(ctx, query, num)
}

// stubRetriever returns canned candidates or an error.
type stubRetriever struct {
	name  string
	cands []search.Candidate
	err   error
	calls atomic.Int32
}

func (s *stubRetriever) Name() string { return s.name }

func (s *stubRetriever) Retrieve(ctx context.Context, _ string, _ int, _ string) ([]search.Candidate, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.cands, nil
}

func sparseCand(id string, score float64) search.Candidate {
	return search.Candidate{ID: id, Content: id, SourceType: search.SourceDocument, SparseScore: search.Float(score)}
}

func candIDs(cands []search.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}
