// Package search implements the hybrid retrieval pipeline: request
// validation and canonicalization, concurrent dense and sparse retrieval,
// min-max score fusion, credibility filtering, cross-encoder reranking and
// response assembly behind a single-flight result cache.
package search

import (
	"context"
	"slices"
)

// SearchType selects which retrievers serve a request.
type SearchType string

const (
	SearchTypeDocument SearchType = "document"
	SearchTypeWeb      SearchType = "web"
	SearchTypeHybrid   SearchType = "hybrid"
)

// SourceType says where a candidate came from.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceWeb      SourceType = "web"
)

// Quality is the coarse confidence band of a response.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Metadata is the closed set of descriptive fields a candidate may carry.
type Metadata struct {
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	DocID     string `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	Author    string `json:"author,omitempty" yaml:"author,omitempty"`
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
}

// Candidate is one retrieved unit moving through the pipeline.
type Candidate struct {
	// ID is the identity used for deduplication.
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	SourceType SourceType `json:"source_type"`

	// Raw backend scores; nil when that retriever did not return the candidate.
	DenseScore  *float64 `json:"dense_score,omitempty"`
	SparseScore *float64 `json:"sparse_score,omitempty"`

	// FusedScore is in [0,1] once fusion has run.
	FusedScore float64 `json:"fused_score"`

	// RerankScore is set only when the cross-encoder scored this candidate.
	RerankScore *float64 `json:"rerank_score,omitempty"`

	// Credibility is in [0,1] for web candidates when a scorer supplied it.
	Credibility *float64 `json:"credibility,omitempty"`

	// Score is the final ranking key: non-increasing across a result list.
	Score float64 `json:"score"`

	Metadata Metadata `json:"metadata"`
}

// RankingKey returns RerankScore when set, else FusedScore.
func (c *Candidate) RankingKey() float64 {
	if c.RerankScore != nil {
		return *c.RerankScore
	}
	return c.FusedScore
}

// Clone returns a deep copy of c.
func (c Candidate) Clone() Candidate {
	c.DenseScore = clonePtr(c.DenseScore)
	c.SparseScore = clonePtr(c.SparseScore)
	c.RerankScore = clonePtr(c.RerankScore)
	c.Credibility = clonePtr(c.Credibility)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// SearchRequest is the input to Engine.Search.
type SearchRequest struct {
	Query      string
	SearchType SearchType
	// K is the number of results; 0 means the configured default.
	K int
	// SourceFilter keeps only candidates whose Metadata.Source matches exactly.
	SourceFilter string
	// MinCredibility drops web candidates scored below it; nil means the
	// configured default.
	MinCredibility *float64
	// EnableCache defaults to true when nil.
	EnableCache *bool
	// CitationStyle is apa, mla or chicago; empty means the configured default.
	CitationStyle string
}

// SearchResponse is the output of Engine.Search.
type SearchResponse struct {
	Query          string      `json:"query"`
	SearchType     SearchType  `json:"search_type"`
	Results        []Candidate `json:"results"`
	TotalResults   int         `json:"total_results"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	Sources        []string    `json:"sources"`
	Citations      []string    `json:"citations"`
	Confidence     float64     `json:"confidence"`
	Quality        Quality     `json:"quality"`

	// Cached is true on responses served from a stored entry. Together with
	// ResponseTimeMs it describes the request that returned the response;
	// every other field is the stored value.
	Cached bool `json:"cached"`
	// Degraded names the retrievers that were unavailable for this response.
	Degraded  []string `json:"degraded,omitempty"`
	RequestID string   `json:"request_id"`
}

// Clone returns a deep copy of r.
func (r *SearchResponse) Clone() *SearchResponse {
	out := *r
	out.Results = make([]Candidate, len(r.Results))
	for i, c := range r.Results {
		out.Results[i] = c.Clone()
	}
	out.Sources = slices.Clone(r.Sources)
	out.Citations = slices.Clone(r.Citations)
	out.Degraded = slices.Clone(r.Degraded)
	return &out
}

// Retriever is a dense or sparse retrieval backend. Scores are
// backend-native: dense retrievers set DenseScore, sparse retrievers set
// SparseScore. Implementations must be safe for concurrent use.
type Retriever interface {
	// Name identifies the retriever in logs, metrics and Degraded.
	Name() string

	// Retrieve returns up to k candidates for query. A non-empty
	// sourceFilter restricts candidates to that Metadata.Source.
	Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]Candidate, error)
}

// PartialError is returned alongside usable candidates by a retriever that
// combines several backends when some of them failed. The engine keeps the
// candidates and records the failed members as degraded.
type PartialError struct {
	Failed []string
	Err    error
}

func (e *PartialError) Error() string {
	return "partial retrieval: " + e.Err.Error()
}

func (e *PartialError) Unwrap() error { return e.Err }

// Channel is the pair of retrievers serving one search type. Either side
// may be nil when the search type does not use it.
type Channel struct {
	Dense  Retriever
	Sparse Retriever
}

func (c Channel) expected() int {
	n := 0
	if c.Dense != nil {
		n++
	}
	if c.Sparse != nil {
		n++
	}
	return n
}
