package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "climate policy", NormalizeQuery("  Climate \t POLICY\n"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestCanonicalize(t *testing.T) {
	base := SearchRequest{
		Query:          "Climate Policy",
		SearchType:     SearchTypeHybrid,
		K:              5,
		MinCredibility: Float(0.5),
		CitationStyle:  "apa",
	}

	tests := []struct {
		name string
		mod  func(r *SearchRequest)
		same bool
	}{
		{name: "identical", mod: func(r *SearchRequest) {}, same: true},
		{name: "case and whitespace", mod: func(r *SearchRequest) { r.Query = "  climate   POLICY " }, same: true},
		{name: "float noise", mod: func(r *SearchRequest) { r.MinCredibility = Float(0.5000001) }, same: true},
		{name: "cache flag", mod: func(r *SearchRequest) { r.EnableCache = Bool(false) }, same: true},
		{name: "different k", mod: func(r *SearchRequest) { r.K = 6 }, same: false},
		{name: "different type", mod: func(r *SearchRequest) { r.SearchType = SearchTypeWeb }, same: false},
		{name: "source filter", mod: func(r *SearchRequest) { r.SourceFilter = "arxiv" }, same: false},
		{name: "min credibility", mod: func(r *SearchRequest) { r.MinCredibility = Float(0.2) }, same: false},
		{name: "citation style", mod: func(r *SearchRequest) { r.CitationStyle = "mla" }, same: false},
		{name: "different query", mod: func(r *SearchRequest) { r.Query = "climate policies" }, same: false},
	}

	want := Canonicalize(base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mod(&r)
			if tt.same {
				assert.Equal(t, want, Canonicalize(r))
			} else {
				assert.NotEqual(t, want, Canonicalize(r))
			}
		})
	}
}

func TestCanonicalize_FieldsCannotBleed(t *testing.T) {
	cfg := DefaultEngineConfig()

	tests := []struct {
		name string
		a, b SearchRequest
	}{
		{
			name: "space split",
			a:    SearchRequest{Query: "a", SourceFilter: "b c"},
			b:    SearchRequest{Query: "a b", SourceFilter: "c"},
		},
		{
			name: "separator in query",
			a:    SearchRequest{Query: "q" + keySep + "hybrid" + keySep + "5" + keySep + "s", K: 5, SourceFilter: "s"},
			b:    SearchRequest{Query: "q", K: 5, SourceFilter: "s" + keySep + "hybrid" + keySep + "5" + keySep + "s"},
		},
		{
			name: "quote in filter",
			a:    SearchRequest{Query: `q"`, K: 5, SourceFilter: "s"},
			b:    SearchRequest{Query: "q", K: 5, SourceFilter: `"s`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: two validated requests that differ only in how text is split
			a, err := Validate(tt.a, cfg)
			require.NoError(t, err)
			b, err := Validate(tt.b, cfg)
			require.NoError(t, err)

			// Then: their keys differ
			assert.NotEqual(t, Canonicalize(a), Canonicalize(b))
		})
	}
}
