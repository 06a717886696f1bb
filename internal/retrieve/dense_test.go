package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

func newDenseFixture(t *testing.T) (*Dense, *fakeEmbedder) {
	t.Helper()
	vs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })

	require.NoError(t, vs.Add(context.Background(),
		[]string{"a", "b", "c", "orphan"},
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0.9, 0.1, 0, 0}, {0, 0, 1, 0}}))

	docs := mapLookup{
		"a": {content: "carbon pricing", meta: search.Metadata{Title: "A", Source: "corpus"}},
		"b": {content: "ocean currents", meta: search.Metadata{Title: "B", Source: "arxiv"}},
		"c": {content: "emission trading", meta: search.Metadata{Title: "C", Source: "arxiv"}},
	}
	emb := &fakeEmbedder{vectors: map[string][]float32{"carbon": {1, 0, 0, 0}}}

	d, err := NewDense(WithEmbedder(emb), WithVectorStore(vs), WithDenseDocuments(docs))
	require.NoError(t, err)
	return d, emb
}

func TestNewDense_RequiresDependencies(t *testing.T) {
	vs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	emb := &fakeEmbedder{}
	docs := mapLookup{}

	tests := []struct {
		name string
		opts []DenseOption
		want error
	}{
		{name: "no embedder", opts: []DenseOption{WithVectorStore(vs), WithDenseDocuments(docs)}, want: ErrNilEmbedder},
		{name: "no store", opts: []DenseOption{WithEmbedder(emb), WithDenseDocuments(docs)}, want: ErrNilVectorStore},
		{name: "no documents", opts: []DenseOption{WithEmbedder(emb), WithVectorStore(vs)}, want: ErrNilDocuments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDense(tt.opts...)

			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDense_Retrieve(t *testing.T) {
	// Given: three indexed passages and an orphan vector with no passage
	// pointing away from the query
	d, _ := newDenseFixture(t)

	// When: retrieving the two nearest
	cands, err := d.Retrieve(context.Background(), "carbon", 2, "")

	// Then: cosine similarity is the dense score
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, candIDs(cands))
	require.NotNil(t, cands[0].DenseScore)
	assert.InDelta(t, 1.0, *cands[0].DenseScore, 1e-4)
	assert.Nil(t, cands[0].SparseScore)
	assert.Equal(t, search.SourceDocument, cands[0].SourceType)
	assert.Equal(t, "carbon pricing", cands[0].Content)
	assert.Equal(t, "A", cands[0].Metadata.Title)
	assert.Equal(t, "dense", d.Name())
}

func TestDense_Retrieve_SkipsOrphans(t *testing.T) {
	d, _ := newDenseFixture(t)

	cands, err := d.Retrieve(context.Background(), "carbon", 10, "")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, candIDs(cands))
}

func TestDense_Retrieve_SourceFilterOverFetches(t *testing.T) {
	d, _ := newDenseFixture(t)

	// k=1 alone would return only "a", which the filter removes.
	cands, err := d.Retrieve(context.Background(), "carbon", 1, "arxiv")

	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, candIDs(cands))
}

func TestDense_Retrieve_EmbedError(t *testing.T) {
	d, emb := newDenseFixture(t)
	emb.err = errors.New("model not loaded")

	_, err := d.Retrieve(context.Background(), "carbon", 2, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding query failed")
}

func TestDense_Retrieve_ZeroK(t *testing.T) {
	d, _ := newDenseFixture(t)

	cands, err := d.Retrieve(context.Background(), "carbon", 0, "")

	require.NoError(t, err)
	assert.Empty(t, cands)
}
