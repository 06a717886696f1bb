package search

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// fakeRetriever returns canned candidates, or fails, or blocks.
type fakeRetriever struct {
	name  string
	cands []Candidate
	err   error
	// delay blocks Retrieve until it elapses or ctx is done.
	delay time.Duration
	// gate, when set, blocks Retrieve until closed or ctx is done.
	gate  chan struct{}
	calls atomic.Int32

	lastK      atomic.Int32
	lastFilter atomic.Value
}

func (f *fakeRetriever) Name() string { return f.name }

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]Candidate, error) {
	f.calls.Add(1)
	f.lastK.Store(int32(k))
	f.lastFilter.Store(sourceFilter)

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Candidate, len(f.cands))
	for i, c := range f.cands {
		out[i] = c.Clone()
	}
	return out, nil
}

// partialRetriever returns candidates together with a PartialError.
type partialRetriever struct {
	fakeRetriever
	failed []string
}

func (p *partialRetriever) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]Candidate, error) {
	cands, err := p.fakeRetriever.Retrieve(ctx, query, k, sourceFilter)
	if err != nil {
		return nil, err
	}
	return cands, &PartialError{Failed: p.failed, Err: errors.New("member failed")}
}

func denseDoc(id string, score float64) Candidate {
	return Candidate{
		ID:         id,
		Content:    "content of " + id,
		SourceType: SourceDocument,
		DenseScore: Float(score),
		Metadata:   Metadata{Title: "Title " + id, Source: "corpus", DocID: id},
	}
}

func sparseDoc(id string, score float64) Candidate {
	c := denseDoc(id, 0)
	c.DenseScore = nil
	c.SparseScore = Float(score)
	return c
}

func webCand(id string, score, cred float64) Candidate {
	return Candidate{
		ID:          id,
		Content:     "web page " + id,
		SourceType:  SourceWeb,
		SparseScore: Float(score),
		Credibility: Float(cred),
		Metadata:    Metadata{Title: "Page " + id, URL: "https://example.org/" + id, Source: "web"},
	}
}

// fakeReranker scores documents by a lookup on content, or fails.
type fakeReranker struct {
	scores map[string]float64
	err    error
	drop   int // truncates the response to simulate a partial answer
	calls  atomic.Int32
	delay  time.Duration
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]RerankResult, 0, len(documents))
	for i, d := range documents {
		out = append(out, RerankResult{Index: i, Score: f.scores[d], Document: d})
	}
	if f.drop > 0 && f.drop <= len(out) {
		out = out[:len(out)-f.drop]
	}
	return out, nil
}

func (f *fakeReranker) Available(context.Context) bool { return true }
func (f *fakeReranker) Close() error                   { return nil }

func ids(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}
