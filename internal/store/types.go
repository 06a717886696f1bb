// Package store provides the on-disk and in-memory indexes behind retrieval:
// an HNSW vector store for dense search and BM25 indexes (SQLite FTS5 or
// Bleve) for sparse search.
package store

import (
	"context"
	"fmt"
)

// Document is a unit of text submitted to a BM25 index.
type Document struct {
	ID      string
	Content string
}

// BM25Result is a single BM25 hit.
type BM25Result struct {
	DocID        string
	Score        float64 // Higher is better, unbounded
	MatchedTerms []string
}

// IndexStats provides statistics about a BM25 index.
type IndexStats struct {
	DocumentCount int
}

// BM25Index provides keyword search scored by BM25.
type BM25Index interface {
	// Index adds documents. Existing IDs are replaced.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// AllIDs returns every indexed document ID.
	AllIDs() ([]string, error)

	Stats() *IndexStats

	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config configures a BM25 index.
type BM25Config struct {
	// StopWords are dropped from documents and queries.
	StopWords []string

	// MinTokenLength is the shortest token kept (default: 2).
	MinTokenLength int
}

// DefaultBM25Config returns the default BM25 configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		StopWords:      DefaultStopWords,
		MinTokenLength: 2,
	}
}

// DefaultStopWords are common English function words.
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "in", "into", "is", "it", "its", "of", "on", "or", "that",
	"the", "their", "there", "these", "this", "to", "was", "were", "what",
	"when", "where", "which", "who", "why", "will", "with", "how",
}

// VectorResult is a single nearest-neighbour hit.
type VectorResult struct {
	ID       string
	Distance float32 // Lower is more similar (0-2 for cosine)
	Score    float32 // Cosine similarity in [-1, 1] for "cos", 1/(1+d) for "l2"
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	Dimensions int

	// Metric is "cos" (default) or "l2".
	Metric string

	// M is the HNSW max connections per layer.
	M int

	// EfSearch is the HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns defaults for the given dimensionality.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   64,
	}
}

// VectorStore provides approximate nearest-neighbour search.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbours of query.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int

	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (rebuild with 'hybridsearch index')", e.Expected, e.Got)
}
