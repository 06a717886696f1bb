package search

import (
	"time"

	"github.com/Aman-CERP/hybridsearch/internal/citation"
	"github.com/Aman-CERP/hybridsearch/internal/config"
)

// Weights are the fusion weights applied to normalized dense and sparse scores.
type Weights struct {
	Dense  float64
	Sparse float64
}

// DefaultWeights weighs both retrievers equally.
func DefaultWeights() Weights {
	return Weights{Dense: 0.5, Sparse: 0.5}
}

// webWeights makes a web-only response rank purely by web score.
var webWeights = Weights{Dense: 0, Sparse: 1}

// ConfidenceConfig holds the confidence penalties and quality thresholds.
type ConfidenceConfig struct {
	SingleRetrieverPenalty float64
	NoRerankPenalty        float64
	ShortResultPenalty     float64
	HighThreshold          float64
	MediumThreshold        float64
}

// DefaultConfidenceConfig returns the default penalties and thresholds.
func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		SingleRetrieverPenalty: 0.2,
		NoRerankPenalty:        0.1,
		ShortResultPenalty:     0.1,
		HighThreshold:          0.7,
		MediumThreshold:        0.4,
	}
}

// EngineConfig holds the request defaults and stage limits of an Engine.
type EngineConfig struct {
	DefaultK              int
	MaxK                  int
	DefaultMinCredibility float64
	Weights               Weights

	DenseTimeout  time.Duration
	SparseTimeout time.Duration
	// WebTimeout bounds the web retriever when it serves a web-only request.
	WebTimeout time.Duration

	RerankTopK    int
	RerankTimeout time.Duration

	CitationStyle citation.Style
	MaxCitations  int

	Confidence ConfidenceConfig
}

// DefaultEngineConfig returns the defaults used when no config file exists.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultK:              10,
		MaxK:                  config.MaxK,
		DefaultMinCredibility: 0.5,
		Weights:               DefaultWeights(),
		DenseTimeout:          2 * time.Second,
		SparseTimeout:         2 * time.Second,
		WebTimeout:            10 * time.Second,
		RerankTopK:            config.MaxRerankTopK,
		RerankTimeout:         3 * time.Second,
		CitationStyle:         citation.StyleAPA,
		MaxCitations:          5,
		Confidence:            DefaultConfidenceConfig(),
	}
}

// EngineConfigFrom maps the application configuration onto an EngineConfig.
// The citation style has already been checked by config.Validate.
func EngineConfigFrom(cfg *config.Config) EngineConfig {
	style, err := citation.ParseStyle(cfg.Citations.Style)
	if err != nil {
		style = citation.StyleAPA
	}
	return EngineConfig{
		DefaultK:              cfg.Search.DefaultK,
		MaxK:                  cfg.Search.MaxK,
		DefaultMinCredibility: cfg.Search.DefaultMinCredibility,
		Weights:               Weights{Dense: cfg.Search.DenseWeight, Sparse: cfg.Search.SparseWeight},
		DenseTimeout:          cfg.Search.DenseTimeout,
		SparseTimeout:         cfg.Search.SparseTimeout,
		WebTimeout:            cfg.Web.Timeout,
		RerankTopK:            cfg.Rerank.TopK,
		RerankTimeout:         cfg.Rerank.Timeout,
		CitationStyle:         style,
		MaxCitations:          cfg.Citations.Max,
		Confidence: ConfidenceConfig{
			SingleRetrieverPenalty: cfg.Confidence.SingleRetrieverPenalty,
			NoRerankPenalty:        cfg.Confidence.NoRerankPenalty,
			ShortResultPenalty:     cfg.Confidence.ShortResultPenalty,
			HighThreshold:          cfg.Confidence.HighThreshold,
			MediumThreshold:        cfg.Confidence.MediumThreshold,
		},
	}
}

// withDefaults fills zero fields from DefaultEngineConfig.
func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.DefaultK <= 0 {
		c.DefaultK = d.DefaultK
	}
	if c.MaxK <= 0 || c.MaxK > config.MaxK {
		c.MaxK = d.MaxK
	}
	if c.DefaultK > c.MaxK {
		c.DefaultK = c.MaxK
	}
	if c.Weights.Dense <= 0 && c.Weights.Sparse <= 0 {
		c.Weights = d.Weights
	}
	if c.DenseTimeout <= 0 {
		c.DenseTimeout = d.DenseTimeout
	}
	if c.SparseTimeout <= 0 {
		c.SparseTimeout = d.SparseTimeout
	}
	if c.WebTimeout <= 0 {
		c.WebTimeout = d.WebTimeout
	}
	if c.RerankTopK <= 0 || c.RerankTopK > config.MaxRerankTopK {
		c.RerankTopK = d.RerankTopK
	}
	if c.RerankTimeout <= 0 {
		c.RerankTimeout = d.RerankTimeout
	}
	if c.CitationStyle == "" {
		c.CitationStyle = d.CitationStyle
	}
	if c.MaxCitations <= 0 {
		c.MaxCitations = d.MaxCitations
	}
	if c.Confidence == (ConfidenceConfig{}) {
		c.Confidence = d.Confidence
	}
	return c
}
