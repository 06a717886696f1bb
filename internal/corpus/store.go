package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/search"
)

// DocumentsFile is the name of the document table written next to an
// on-disk index.
const DocumentsFile = "documents.json"

// Store is a read-only document table keyed by ID. It resolves retriever
// hits back to content and citation metadata.
type Store struct {
	docs  map[string]Document
	order []string
}

// NewStore indexes docs by ID. Docs must already be valid.
func NewStore(docs []Document) (*Store, error) {
	s := &Store{
		docs:  make(map[string]Document, len(docs)),
		order: make([]string, 0, len(docs)),
	}
	for _, d := range docs {
		if _, dup := s.docs[d.ID]; dup {
			return nil, serrors.CorpusInvalid(fmt.Sprintf("duplicate document id %q", d.ID), nil)
		}
		s.docs[d.ID] = d
		s.order = append(s.order, d.ID)
	}
	return s, nil
}

// Lookup returns the content and metadata of id.
func (s *Store) Lookup(id string) (string, search.Metadata, bool) {
	d, ok := s.docs[id]
	if !ok {
		return "", search.Metadata{}, false
	}
	return d.Content, search.Metadata{
		Title:     d.Title,
		URL:       d.URL,
		Source:    d.Source,
		DocID:     d.ID,
		Author:    d.Author,
		Published: d.Published,
	}, true
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.order) }

// Documents returns the documents in load order.
func (s *Store) Documents() []Document {
	out := make([]Document, len(s.order))
	for i, id := range s.order {
		out[i] = s.docs[id]
	}
	return out
}

// WriteFile writes the table as JSON, replacing path atomically.
func (s *Store) WriteFile(path string) error {
	data, err := json.MarshalIndent(File{Documents: s.Documents()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename documents: %w", err)
	}
	return nil
}

// ReadStore loads a table written by WriteFile.
func ReadStore(path string) (*Store, error) {
	docs, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(docs)
}
