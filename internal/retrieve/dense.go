package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/hybridsearch/internal/embed"
	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

// Dense performs semantic search: the query is embedded and matched against
// the vector store. DenseScore is the backend's cosine similarity.
type Dense struct {
	name     string
	embedder embed.Embedder
	store    store.VectorStore
	docs     DocumentLookup
}

var _ search.Retriever = (*Dense)(nil)

// DenseOption configures Dense.
type DenseOption func(*Dense)

// WithEmbedder sets the query embedder.
func WithEmbedder(e embed.Embedder) DenseOption {
	return func(d *Dense) {
		d.embedder = e
	}
}

// WithVectorStore sets the vector store backend.
func WithVectorStore(vs store.VectorStore) DenseOption {
	return func(d *Dense) {
		d.store = vs
	}
}

// WithDenseDocuments sets the lookup used to resolve vector IDs.
func WithDenseDocuments(docs DocumentLookup) DenseOption {
	return func(d *Dense) {
		d.docs = docs
	}
}

// WithDenseName overrides the retriever name (default "dense").
func WithDenseName(name string) DenseOption {
	return func(d *Dense) {
		d.name = name
	}
}

// NewDense creates a dense retriever. An embedder, a vector store and a
// document lookup are required.
func NewDense(opts ...DenseOption) (*Dense, error) {
	d := &Dense{name: "dense"}
	for _, opt := range opts {
		opt(d)
	}

	if d.embedder == nil {
		return nil, ErrNilEmbedder
	}
	if d.store == nil {
		return nil, ErrNilVectorStore
	}
	if d.docs == nil {
		return nil, ErrNilDocuments
	}
	return d, nil
}

// Name implements search.Retriever.
func (d *Dense) Name() string { return d.name }

// Retrieve embeds query and returns up to k nearest passages.
func (d *Dense) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]search.Candidate, error) {
	if k <= 0 {
		return []search.Candidate{}, nil
	}

	embedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits, err := d.store.Search(ctx, embedding, fetchSize(k, sourceFilter))
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	cands := make([]search.Candidate, 0, min(k, len(hits)))
	for _, hit := range hits {
		content, meta, ok := d.docs.Lookup(hit.ID)
		if !ok {
			slog.Debug("dense_orphan_id", slog.String("id", hit.ID))
			continue
		}
		if sourceFilter != "" && meta.Source != sourceFilter {
			continue
		}
		cands = append(cands, search.Candidate{
			ID:         hit.ID,
			Content:    content,
			SourceType: search.SourceDocument,
			DenseScore: search.Float(float64(hit.Score)),
			Metadata:   meta,
		})
		if len(cands) == k {
			break
		}
	}
	return cands, nil
}
