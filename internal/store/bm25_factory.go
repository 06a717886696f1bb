package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// BM25Backend names a BM25 index implementation.
type BM25Backend string

const (
	// BM25BackendSQLite uses SQLite FTS5 (default). WAL mode allows
	// concurrent readers across processes.
	BM25BackendSQLite BM25Backend = "sqlite"

	// BM25BackendBleve uses Bleve v2. Its BoltDB store takes an exclusive
	// file lock, so only one process may open it.
	BM25BackendBleve BM25Backend = "bleve"
)

// NewBM25IndexWithBackend creates a BM25Index using the named backend.
// basePath has no extension; ".db" (SQLite) or ".bleve" (Bleve) is appended.
// An empty basePath creates an in-memory index.
func NewBM25IndexWithBackend(basePath string, config BM25Config, backend string) (BM25Index, error) {
	switch BM25Backend(backend) {
	case BM25BackendSQLite, "":
		var path string
		if basePath != "" {
			path = basePath + ".db"
		}
		return NewSQLiteBM25Index(path, config)

	case BM25BackendBleve:
		var path string
		if basePath != "" {
			path = basePath + ".bleve"
		}
		return NewBleveBM25Index(path, config)

	default:
		return nil, fmt.Errorf("unknown BM25 backend: %s (valid options: sqlite, bleve)", backend)
	}
}

// DetectBM25Backend reports which backend an existing index under basePath
// uses, or "" when there is none.
func DetectBM25Backend(basePath string) BM25Backend {
	if fileExists(basePath + ".db") {
		return BM25BackendSQLite
	}
	if dirExists(basePath + ".bleve") {
		return BM25BackendBleve
	}
	return ""
}

// BM25BasePath returns the extension-less BM25 index path inside dataDir.
func BM25BasePath(dataDir string) string {
	return filepath.Join(dataDir, "bm25")
}

// VectorPath returns the HNSW graph path inside dataDir.
func VectorPath(dataDir string) string {
	return filepath.Join(dataDir, "vectors.hnsw")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
