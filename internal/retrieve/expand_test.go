package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryExpander_Expand(t *testing.T) {
	tests := []struct {
		name  string
		opts  []QueryExpanderOption
		query string
		want  string
	}{
		{
			name:  "abbreviation",
			query: "CO2 levels",
			want:  "co2 levels carbon dioxide emissions",
		},
		{
			name:  "original terms first and deduplicated",
			query: "policy policy regulation",
			want:  "policy regulation law legislation rule",
		},
		{
			name:  "cap per term",
			opts:  []QueryExpanderOption{WithMaxExpansions(1)},
			query: "policy",
			want:  "policy regulation",
		},
		{
			name:  "expansion off",
			opts:  []QueryExpanderOption{WithMaxExpansions(0)},
			query: "policy",
			want:  "policy",
		},
		{
			name:  "custom synonyms",
			opts:  []QueryExpanderOption{WithSynonyms(map[string][]string{"Heatwave": {"heat", "temperature"}})},
			query: "heatwave",
			want:  "heatwave heat temperature",
		},
		{
			name:  "punctuation splits terms",
			query: "solar-panel",
			want:  "solar panel",
		},
		{
			name:  "no terms",
			query: "  ?! ",
			want:  "  ?! ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewQueryExpander(tt.opts...)

			assert.Equal(t, tt.want, e.Expand(tt.query))
		})
	}
}

func TestQueryExpander_CustomSynonymsDoNotModifyDefaults(t *testing.T) {
	before := len(DefaultSynonyms["policy"])

	_ = NewQueryExpander(WithSynonyms(map[string][]string{"policy": {"charter"}}))

	assert.Len(t, DefaultSynonyms["policy"], before)
}
