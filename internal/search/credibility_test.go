package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByCredibility(t *testing.T) {
	lowWeb := webCand("w1", 1, 0.3)
	goodWeb := webCand("w2", 1, 0.8)
	unscored := webCand("w3", 1, 0)
	unscored.Credibility = nil
	doc := denseDoc("d1", 0.5)

	cands := []Candidate{lowWeb, doc, goodWeb, unscored}

	t.Run("drops web results below the threshold", func(t *testing.T) {
		kept, dropped := FilterByCredibility(cands, 0.5)

		assert.Equal(t, []string{"d1", "w2", "w3"}, ids(kept))
		assert.Equal(t, 1, dropped)
	})

	t.Run("keeps them under a lower threshold", func(t *testing.T) {
		kept, dropped := FilterByCredibility(cands, 0.2)

		assert.Equal(t, []string{"w1", "d1", "w2", "w3"}, ids(kept))
		assert.Zero(t, dropped)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		kept, _ := FilterByCredibility(cands, 0.3)

		assert.Contains(t, ids(kept), "w1")
	})

	t.Run("documents pass any threshold", func(t *testing.T) {
		lowDoc := denseDoc("d2", 0.1)
		lowDoc.Credibility = Float(0.0)

		kept, dropped := FilterByCredibility([]Candidate{lowDoc}, 1.0)

		require.Len(t, kept, 1)
		assert.Zero(t, dropped)
	})
}

func TestFilterBySource(t *testing.T) {
	arxiv := denseDoc("a", 1)
	arxiv.Metadata.Source = "arxiv"
	cands := []Candidate{denseDoc("c", 1), arxiv, webCand("w", 1, 1)}

	assert.Equal(t, []string{"a"}, ids(filterBySource(cands, "arxiv")))
	assert.Equal(t, []string{"w"}, ids(filterBySource(cands, "web")))
	assert.Len(t, filterBySource(cands, ""), 3)
	assert.Empty(t, filterBySource(cands, "missing"))
}
