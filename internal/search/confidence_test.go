package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(scores ...float64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		out[i] = Candidate{ID: string(rune('a' + i)), Score: s}
	}
	return out
}

func TestAssess(t *testing.T) {
	cfg := DefaultConfidenceConfig()

	tests := []struct {
		name    string
		results []Candidate
		k       int
		sig     Signals
		want    float64
		quality Quality
	}{
		{
			name:    "strong reranked hybrid",
			results: scored(0.95, 0.9, 0.85),
			k:       3,
			sig:     Signals{Reranked: true},
			want:    0.9,
			quality: QualityHigh,
		},
		{
			name:    "no rerank penalty",
			results: scored(0.9, 0.9),
			k:       2,
			want:    0.8,
			quality: QualityHigh,
		},
		{
			name:    "single retriever penalty",
			results: scored(0.8, 0.8),
			k:       2,
			sig:     Signals{SingleRetriever: true, Reranked: true},
			want:    0.6,
			quality: QualityMedium,
		},
		{
			name:    "short result penalty",
			results: scored(1.0, 0.0, 0.0),
			k:       5,
			want:    1.0/3 - 0.2,
			quality: QualityLow,
		},
		{
			name:    "only top k counted",
			results: scored(1.0, 1.0, 0.0, 0.0),
			k:       2,
			sig:     Signals{Reranked: true},
			want:    1.0,
			quality: QualityHigh,
		},
		{
			name:    "degraded never high",
			results: scored(1.0, 1.0),
			k:       2,
			sig:     Signals{Reranked: true, Degraded: true},
			want:    1.0,
			quality: QualityMedium,
		},
		{
			name:    "empty results clamp to zero",
			results: nil,
			k:       5,
			sig:     Signals{SingleRetriever: true},
			want:    0,
			quality: QualityLow,
		},
		{
			name:    "medium threshold inclusive",
			results: scored(0.5),
			k:       1,
			want:    0.4,
			quality: QualityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, quality := Assess(tt.results, tt.k, tt.sig, cfg)

			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.quality, quality)
		})
	}
}

func TestAssess_Bounded(t *testing.T) {
	cfg := DefaultConfidenceConfig()
	cfg.NoRerankPenalty = -5 // a misconfigured bonus still clamps

	got, quality := Assess(scored(1, 1), 2, Signals{}, cfg)

	assert.Equal(t, 1.0, got)
	assert.Equal(t, QualityHigh, quality)
}
