package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/hybridsearch/internal/embed"
	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

// ErrNilEmbedder is returned when a Builder is created without an embedder.
var ErrNilEmbedder = errors.New("embedder is required")

// DefaultBatchSize is the number of documents per EmbedBatch call.
const DefaultBatchSize = 32

// Indexes bundles the document table with the dense and sparse indexes built
// from it.
type Indexes struct {
	Docs    *Store
	Vectors *store.HNSWStore
	BM25    store.BM25Index
}

// Close releases both indexes.
func (ix *Indexes) Close() error {
	var errs []error
	if ix.Vectors != nil {
		if err := ix.Vectors.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vectors: %w", err))
		}
	}
	if ix.BM25 != nil {
		if err := ix.BM25.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bm25: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Builder embeds and indexes documents.
//
// Embedding batches run on an ants worker pool while the BM25 index is
// written concurrently. A Builder may be reused for several builds.
type Builder struct {
	embedder  embed.Embedder
	bm25Cfg   store.BM25Config
	backend   string
	workers   int
	batchSize int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBM25Config overrides the BM25 tokenizer configuration.
func WithBM25Config(cfg store.BM25Config) BuilderOption {
	return func(b *Builder) { b.bm25Cfg = cfg }
}

// WithBackend selects the BM25 backend ("sqlite" or "bleve").
func WithBackend(backend string) BuilderOption {
	return func(b *Builder) { b.backend = backend }
}

// WithWorkers sets the embedding pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// WithBatchSize sets how many documents go into one EmbedBatch call.
func WithBatchSize(n int) BuilderOption {
	return func(b *Builder) { b.batchSize = n }
}

// NewBuilder creates a Builder that embeds with emb.
func NewBuilder(emb embed.Embedder, opts ...BuilderOption) (*Builder, error) {
	if emb == nil {
		return nil, ErrNilEmbedder
	}
	b := &Builder{
		embedder:  emb,
		bm25Cfg:   store.DefaultBM25Config(),
		backend:   string(store.BM25BackendSQLite),
		workers:   runtime.NumCPU() / 2,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = 1
	}
	if b.batchSize < 1 {
		b.batchSize = DefaultBatchSize
	}
	return b, nil
}

// Build indexes docs in memory.
func (b *Builder) Build(ctx context.Context, docs []Document) (*Indexes, error) {
	return b.build(ctx, docs, "")
}

// BuildDir indexes docs under dir and persists the vectors, the BM25 index
// and the document table there. The directory is locked for the duration of
// the build so concurrent builds cannot interleave.
func (b *Builder) BuildDir(ctx context.Context, dir string, docs []Document) (*Indexes, error) {
	lock := store.NewIndexLock(dir)
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("index_unlock_failed", slog.String("dir", dir), slog.String("error", err.Error()))
		}
	}()

	if err := removeIndexFiles(dir); err != nil {
		return nil, err
	}

	ix, err := b.build(ctx, docs, store.BM25BasePath(dir))
	if err != nil {
		return nil, err
	}

	if err := ix.Vectors.Save(store.VectorPath(dir)); err != nil {
		ix.Close()
		return nil, fmt.Errorf("save vectors: %w", err)
	}
	if err := ix.BM25.Save(store.BM25BasePath(dir)); err != nil {
		ix.Close()
		return nil, fmt.Errorf("save bm25: %w", err)
	}
	if err := ix.Docs.WriteFile(filepath.Join(dir, DocumentsFile)); err != nil {
		ix.Close()
		return nil, err
	}
	return ix, nil
}

// removeIndexFiles clears a previous build so stale documents do not
// survive a rebuild.
func removeIndexFiles(dir string) error {
	base := store.BM25BasePath(dir)
	vec := store.VectorPath(dir)
	for _, path := range []string{base + ".db", base + ".db-wal", base + ".db-shm", vec, vec + ".meta"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	if err := os.RemoveAll(base + ".bleve"); err != nil {
		return fmt.Errorf("remove bleve index: %w", err)
	}
	return nil
}

func (b *Builder) build(ctx context.Context, docs []Document, bm25Base string) (*Indexes, error) {
	if err := Validate(docs); err != nil {
		return nil, err
	}
	table, err := NewStore(docs)
	if err != nil {
		return nil, err
	}

	vectors, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(b.embedder.Dimensions()))
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	bm25, err := store.NewBM25IndexWithBackend(bm25Base, b.bm25Cfg, b.backend)
	if err != nil {
		vectors.Close()
		return nil, fmt.Errorf("create bm25 index: %w", err)
	}
	ix := &Indexes{Docs: table, Vectors: vectors, BM25: bm25}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.indexVectors(gctx, vectors, docs)
	})
	g.Go(func() error {
		batch := make([]*store.Document, len(docs))
		for i, d := range docs {
			batch[i] = &store.Document{ID: d.ID, Content: d.Content}
		}
		if err := bm25.Index(gctx, batch); err != nil {
			return fmt.Errorf("bm25 index: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		ix.Close()
		return nil, err
	}

	slog.Info("corpus_indexed",
		slog.Int("documents", len(docs)),
		slog.String("bm25_backend", b.backend),
		slog.Int("workers", b.workers),
		slog.Duration("duration", time.Since(start)))
	return ix, nil
}

// indexVectors embeds docs in batches on the worker pool and adds the
// vectors in document order.
func (b *Builder) indexVectors(ctx context.Context, vs *store.HNSWStore, docs []Document) error {
	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(docs))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(docs); start += b.batchSize {
		end := min(start+b.batchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Content)
		}

		wg.Add(1)
		s := start
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			out, err := b.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				fail(fmt.Errorf("embed documents %d-%d: %w", s, s+len(texts)-1, err))
				return
			}
			if len(out) != len(texts) {
				fail(serrors.InternalError(
					fmt.Sprintf("embedder returned %d vectors for %d documents", len(out), len(texts)), nil))
				return
			}
			copy(vectors[s:], out)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if err := vs.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	return nil
}

// Open loads indexes previously written by BuildDir.
func Open(dir string, cfg store.BM25Config) (*Indexes, error) {
	base := store.BM25BasePath(dir)
	backend := store.DetectBM25Backend(base)
	if backend == "" {
		return nil, serrors.CorpusInvalid(fmt.Sprintf("no BM25 index found in %s", dir), nil).
			WithSuggestion("run 'hybridsearch index' first")
	}

	table, err := ReadStore(filepath.Join(dir, DocumentsFile))
	if err != nil {
		return nil, err
	}
	vectors, err := store.LoadHNSWStore(store.VectorPath(dir))
	if err != nil {
		return nil, serrors.CorpusInvalid(fmt.Sprintf("cannot load vectors from %s", dir), err)
	}
	bm25, err := store.NewBM25IndexWithBackend(base, cfg, string(backend))
	if err != nil {
		vectors.Close()
		return nil, fmt.Errorf("open bm25 index: %w", err)
	}
	return &Indexes{Docs: table, Vectors: vectors, BM25: bm25}, nil
}
