package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorStore(t *testing.T) *HNSWStore {
	t.Helper()
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHNSWStore_AddAndSearch(t *testing.T) {
	// Given: vectors a=[1,0,0,0], b=[0,1,0,0], c=[0.9,0.1,0,0]
	s := newTestVectorStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx,
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0.9, 0.1, 0, 0}}))

	// When: searching near a
	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)

	// Then: a then c, scored by cosine similarity
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Less(t, results[1].Score, results[0].Score)
}

func TestHNSWStore_OppositeVectorHasNegativeScore(t *testing.T) {
	s := newTestVectorStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"pos", "neg"}, [][]float32{{1, 0, 0, 0}, {-1, 0, 0, 0}}))

	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "neg", results[1].ID)
	assert.InDelta(t, -1.0, results[1].Score, 1e-4)
}

func TestHNSWStore_DeleteAndReplace(t *testing.T) {
	s := newTestVectorStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))

	// Replace a with a vector pointing at the b axis, then delete b.
	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{{0, 1, 0, 0}}))
	require.NoError(t, s.Delete(ctx, []string{"b", "missing"}))

	assert.False(t, s.Contains("b"))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, []string{"a"}, s.AllIDs())

	results, err := s.Search(ctx, []float32{0, 1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "orphaned nodes never appear in results")
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
}

func TestHNSWStore_EmptyAndEdgeCases(t *testing.T) {
	s := newTestVectorStore(t)
	ctx := context.Background()

	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.NoError(t, s.Add(ctx, nil, nil))

	err = s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}})
	assert.Error(t, err)

	err = s.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)

	_, err = s.Search(ctx, []float32{1, 0}, 3)
	assert.ErrorAs(t, err, &dimErr)
}

func TestNewHNSWStore_RejectsZeroDimensions(t *testing.T) {
	_, err := NewHNSWStore(VectorStoreConfig{})
	assert.Error(t, err)
}

func TestHNSWStore_Closed(t *testing.T) {
	s := newTestVectorStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, 1)
	assert.Error(t, err)
	assert.Error(t, s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0, 0, 0}}))
	assert.Error(t, s.Save(filepath.Join(t.TempDir(), "v.hnsw")))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 0, s.Count())
	assert.Nil(t, s.AllIDs())
}

func TestHNSWStore_Persistence(t *testing.T) {
	// Given: a saved store with a replaced ID (one orphan in the graph)
	path := filepath.Join(t.TempDir(), "nested", "vectors.hnsw")
	ctx := context.Background()

	s1, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	require.NoError(t, s1.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))
	require.NoError(t, s1.Add(ctx, []string{"b"}, [][]float32{{0, 0, 1, 0}}))
	require.NoError(t, s1.Save(path))
	require.NoError(t, s1.Close())

	// When: loading it back
	s2, err := LoadHNSWStore(path)
	require.NoError(t, err)
	defer s2.Close()

	// Then: the live mapping and search behaviour survive
	assert.Equal(t, 2, s2.Count())
	assert.Equal(t, 4, s2.Dimensions())
	results, err := s2.Search(ctx, []float32{0, 0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	// And: new additions do not collide with persisted keys
	require.NoError(t, s2.Add(ctx, []string{"c"}, [][]float32{{0, 0, 0, 1}}))
	assert.Equal(t, []string{"a", "b", "c"}, s2.AllIDs())
}

func TestHNSWStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadHNSWStore(filepath.Join(dir, "missing.hnsw"))
	assert.Error(t, err)

	corrupt := filepath.Join(dir, "corrupt.hnsw")
	require.NoError(t, os.WriteFile(corrupt+".meta", []byte("garbage"), 0o644))
	_, err = LoadHNSWStore(corrupt)
	assert.Error(t, err)
}

func TestHNSWStore_ConcurrentAddAndSearch(t *testing.T) {
	s := newTestVectorStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"seed"}, [][]float32{{1, 0, 0, 0}}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = s.Add(ctx, []string{fmt.Sprintf("v_%d_%d", i, j)}, [][]float32{{float32(i + 1), float32(j), 1, 0}})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = s.Search(ctx, []float32{1, 0, 0, 0}, 3)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1+8*25, s.Count())
}

func TestNormalizeVectorInPlace(t *testing.T) {
	v := []float32{3, 4}
	normalizeVectorInPlace(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	normalizeVectorInPlace(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0, "cos"), 1e-6)
	assert.InDelta(t, 0.0, distanceToScore(1, "cos"), 1e-6)
	assert.InDelta(t, -1.0, distanceToScore(2, "cos"), 1e-6)
	assert.InDelta(t, 0.5, distanceToScore(1, "l2"), 1e-6)
	assert.False(t, math.IsNaN(float64(distanceToScore(0, ""))))
}
