package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
)

// RerankResult is the cross-encoder score of one input document.
type RerankResult struct {
	// Index is the position in the input documents slice.
	Index int
	Score float64
	// Document echoes the input when the backend returns it.
	Document string
}

// Reranker scores query-document pairs with a cross-encoder.
type Reranker interface {
	// Rerank scores documents against query. topK limits the results
	// (0 = all). Results may come back in any order.
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error)

	// Available reports whether the backend can serve requests.
	Available(ctx context.Context) bool

	Close() error
}

// NoOpReranker stands in when reranking is disabled. The engine skips the
// rerank stage for it, so responses carry the no-rerank penalty.
type NoOpReranker struct{}

var _ Reranker = (*NoOpReranker)(nil)

// Rerank returns documents in input order with decreasing scores.
func (n *NoOpReranker) Rerank(_ context.Context, _ string, documents []string, topK int) ([]RerankResult, error) {
	results := make([]RerankResult, len(documents))
	for i, doc := range documents {
		results[i] = RerankResult{Index: i, Score: 1.0 - float64(i)*0.01, Document: doc}
	}
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Available is always false: a no-op reranker adds no signal.
func (n *NoOpReranker) Available(_ context.Context) bool { return false }

// Close is a no-op.
func (n *NoOpReranker) Close() error { return nil }

// rerankHead scores the first topK candidates with r and reorders them by
// rerank score, ties keeping their fused order. The tail is appended
// unchanged. On any failure, including a response that does not score every
// head candidate exactly once, cands is returned untouched together with a
// RerankUnavailable error.
func rerankHead(ctx context.Context, r Reranker, query string, cands []Candidate, topK int) ([]Candidate, error) {
	n := min(topK, len(cands))
	if n == 0 {
		return cands, nil
	}

	docs := make([]string, n)
	for i := range n {
		docs[i] = cands[i].Content
	}

	results, err := r.Rerank(ctx, query, docs, 0)
	if err != nil {
		return cands, serrors.RerankUnavailable(err)
	}
	if len(results) != n {
		return cands, serrors.RerankUnavailable(
			fmt.Errorf("reranker scored %d of %d candidates", len(results), n))
	}

	head := make([]Candidate, n)
	copy(head, cands[:n])
	seen := make([]bool, n)
	for _, res := range results {
		if res.Index < 0 || res.Index >= n || seen[res.Index] {
			return cands, serrors.RerankUnavailable(
				fmt.Errorf("reranker returned invalid index %d", res.Index))
		}
		seen[res.Index] = true
		head[res.Index].RerankScore = Float(res.Score)
	}

	sort.SliceStable(head, func(i, j int) bool {
		return *head[i].RerankScore > *head[j].RerankScore
	})

	out := make([]Candidate, 0, len(cands))
	out = append(out, head...)
	out = append(out, cands[n:]...)

	slog.Debug("rerank_applied", slog.Int("scored", n), slog.Int("total", len(cands)))
	return out, nil
}
