package retrieve

import (
	"errors"

	"github.com/Aman-CERP/hybridsearch/internal/search"
)

// ErrNilVectorStore is returned when creating a Dense retriever without a store.
var ErrNilVectorStore = errors.New("vector store is required")

// ErrNilEmbedder is returned when creating a Dense retriever without an embedder.
var ErrNilEmbedder = errors.New("embedder is required")

// ErrNilBM25Index is returned when creating a Sparse retriever without an index.
var ErrNilBM25Index = errors.New("BM25 index is required")

// ErrNilDocuments is returned when a retriever has no DocumentLookup.
var ErrNilDocuments = errors.New("document lookup is required")

// ErrNilSearcher is returned when creating a Web retriever without a searcher.
var ErrNilSearcher = errors.New("web searcher is required")

// ErrNoRetrievers is returned when creating a Merged retriever without members.
var ErrNoRetrievers = errors.New("at least one retriever is required")

// DocumentLookup resolves an indexed ID to its passage text and metadata.
// Implementations must be safe for concurrent use.
type DocumentLookup interface {
	Lookup(id string) (content string, meta search.Metadata, ok bool)
}

// sourceFilterFactor is the over-fetch multiplier applied when a source
// filter will discard part of the backend's answer.
const sourceFilterFactor = 3

func fetchSize(k int, sourceFilter string) int {
	if sourceFilter != "" {
		return k * sourceFilterFactor
	}
	return k
}
