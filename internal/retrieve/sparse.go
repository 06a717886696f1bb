package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

// Sparse performs lexical search over a BM25 index. SparseScore is the raw,
// unbounded BM25 score.
type Sparse struct {
	name     string
	index    store.BM25Index
	docs     DocumentLookup
	expander *QueryExpander
}

var _ search.Retriever = (*Sparse)(nil)

// SparseOption configures Sparse.
type SparseOption func(*Sparse)

// WithBM25Index sets the BM25 backend.
func WithBM25Index(idx store.BM25Index) SparseOption {
	return func(s *Sparse) {
		s.index = idx
	}
}

// WithSparseDocuments sets the lookup used to resolve BM25 document IDs.
func WithSparseDocuments(docs DocumentLookup) SparseOption {
	return func(s *Sparse) {
		s.docs = docs
	}
}

// WithQueryExpander expands each query with related terms before it reaches
// the index.
func WithQueryExpander(e *QueryExpander) SparseOption {
	return func(s *Sparse) {
		s.expander = e
	}
}

// WithSparseName overrides the retriever name (default "bm25").
func WithSparseName(name string) SparseOption {
	return func(s *Sparse) {
		s.name = name
	}
}

// NewSparse creates a BM25 retriever.
func NewSparse(opts ...SparseOption) (*Sparse, error) {
	s := &Sparse{name: "bm25"}
	for _, opt := range opts {
		opt(s)
	}

	if s.index == nil {
		return nil, ErrNilBM25Index
	}
	if s.docs == nil {
		return nil, ErrNilDocuments
	}
	return s, nil
}

// Name implements search.Retriever.
func (s *Sparse) Name() string { return s.name }

// Retrieve returns up to k passages matching any query term, best first.
func (s *Sparse) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]search.Candidate, error) {
	if k <= 0 {
		return []search.Candidate{}, nil
	}

	if s.expander != nil {
		query = s.expander.Expand(query)
	}

	hits, err := s.index.Search(ctx, query, fetchSize(k, sourceFilter))
	if err != nil {
		return nil, fmt.Errorf("BM25 search failed: %w", err)
	}

	cands := make([]search.Candidate, 0, min(k, len(hits)))
	for _, hit := range hits {
		content, meta, ok := s.docs.Lookup(hit.DocID)
		if !ok {
			slog.Debug("sparse_orphan_id", slog.String("id", hit.DocID))
			continue
		}
		if sourceFilter != "" && meta.Source != sourceFilter {
			continue
		}
		cands = append(cands, search.Candidate{
			ID:          hit.DocID,
			Content:     content,
			SourceType:  search.SourceDocument,
			SparseScore: search.Float(hit.Score),
			Metadata:    meta,
		})
		if len(cands) == k {
			break
		}
	}
	return cands, nil
}
