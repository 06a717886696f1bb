package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		minLen int
		expect []string
	}{
		{
			name:   "splits on whitespace and punctuation",
			input:  "Climate policy, carbon-tax; (2024)",
			minLen: 2,
			expect: []string{"climate", "policy", "carbon", "tax", "2024"},
		},
		{
			name:   "drops short tokens",
			input:  "a b cd efg",
			minLen: 2,
			expect: []string{"cd", "efg"},
		},
		{
			name:   "trims possessive suffix",
			input:  "the policy's reach",
			minLen: 2,
			expect: []string{"the", "policy", "reach"},
		},
		{
			name:   "keeps unicode letters",
			input:  "Énergie solaire",
			minLen: 2,
			expect: []string{"énergie", "solaire"},
		},
		{
			name:   "empty input",
			input:  "  ...  ",
			minLen: 2,
			expect: []string{},
		},
		{
			name:   "min length below one is treated as one",
			input:  "a b",
			minLen: 0,
			expect: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input, tt.minLen))
		})
	}
}

func TestFilterStopWords(t *testing.T) {
	stop := BuildStopWordMap([]string{"The", "of"})

	got := FilterStopWords([]string{"the", "state", "of", "OF", "play"}, stop)

	assert.Equal(t, []string{"state", "play"}, got)
}

func TestAnalyze_UsesDefaultMinLength(t *testing.T) {
	cfg := DefaultBM25Config()
	cfg.MinTokenLength = 0

	got := analyze("The impact of a carbon tax", cfg, BuildStopWordMap(cfg.StopWords))

	assert.Equal(t, []string{"impact", "carbon", "tax"}, got)
}
