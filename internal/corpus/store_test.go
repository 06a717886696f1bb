package corpus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/search"
)

func TestStore_Lookup(t *testing.T) {
	s, err := NewStore([]Document{
		{ID: "d1", Content: "alpha", Title: "A", URL: "https://example.org/a", Source: "arxiv", Author: "Doe", Published: "2024"},
		{ID: "d2", Content: "beta"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	content, meta, ok := s.Lookup("d1")
	require.True(t, ok)
	assert.Equal(t, "alpha", content)
	assert.Equal(t, search.Metadata{
		Title:     "A",
		URL:       "https://example.org/a",
		Source:    "arxiv",
		DocID:     "d1",
		Author:    "Doe",
		Published: "2024",
	}, meta)

	_, _, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestNewStore_RejectsDuplicates(t *testing.T) {
	_, err := NewStore([]Document{{ID: "a", Content: "x"}, {ID: "a", Content: "y"}})
	assert.ErrorIs(t, err, serrors.ErrCorpusInvalid)
}

func TestStore_WriteAndRead(t *testing.T) {
	// Given: a store written to disk
	docs := []Document{
		{ID: "z", Content: "last", Title: "Z"},
		{ID: "a", Content: "first"},
	}
	s, err := NewStore(docs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", DocumentsFile)
	require.NoError(t, s.WriteFile(path))

	// When: reading it back
	got, err := ReadStore(path)
	require.NoError(t, err)

	// Then: documents and their order survive
	assert.Equal(t, docs, got.Documents())
	assert.NoFileExists(t, path+".tmp")
}
