package cmd

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/hybridsearch/internal/cache"
	"github.com/Aman-CERP/hybridsearch/internal/config"
	"github.com/Aman-CERP/hybridsearch/internal/corpus"
	"github.com/Aman-CERP/hybridsearch/internal/credibility"
	"github.com/Aman-CERP/hybridsearch/internal/embed"
	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/resilience"
	"github.com/Aman-CERP/hybridsearch/internal/retrieve"
	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/store"
	"github.com/Aman-CERP/hybridsearch/internal/telemetry"
	"github.com/Aman-CERP/hybridsearch/internal/websearch"
)

// appOptions selects where document retrieval reads from. At most one of
// corpusPath and indexDir is used; indexDir wins.
type appOptions struct {
	corpusPath string
	indexDir   string

	// searcher replaces the configured web search backend, for tests.
	searcher websearch.Searcher
}

// app is a fully wired engine plus the resources it owns.
type app struct {
	engine   *search.Engine
	metrics  *telemetry.Metrics
	indexes  *corpus.Indexes
	embedder embed.Embedder
	web      *retrieve.Web
}

// newApp builds the retrievers, reranker, cache and engine described by cfg.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{metrics: telemetry.New()}

	breakerCfg := resilience.BreakerConfig{
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
		OpenTimeout:  cfg.Breaker.OpenTimeout,
	}

	var dense, bm25, web search.Retriever

	if err := a.openIndexes(ctx, cfg, opts); err != nil {
		return nil, err
	}
	if a.indexes != nil {
		d, err := retrieve.NewDense(
			retrieve.WithEmbedder(a.embedder),
			retrieve.WithVectorStore(a.indexes.Vectors),
			retrieve.WithDenseDocuments(a.indexes.Docs),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		sparseOpts := []retrieve.SparseOption{
			retrieve.WithBM25Index(a.indexes.BM25),
			retrieve.WithSparseDocuments(a.indexes.Docs),
		}
		if cfg.Search.QueryExpansion {
			sparseOpts = append(sparseOpts, retrieve.WithQueryExpander(
				retrieve.NewQueryExpander(retrieve.WithSynonyms(cfg.Search.Synonyms))))
		}
		s, err := retrieve.NewSparse(sparseOpts...)
		if err != nil {
			a.Close()
			return nil, err
		}
		dense = retrieve.NewBreaker(d, breakerCfg)
		bm25 = retrieve.NewBreaker(s, breakerCfg)
	}

	if cfg.Web.Enabled {
		searcher := opts.searcher
		if searcher == nil {
			searcher = websearch.NewSearcher(websearch.Config{
				Endpoint:      cfg.Web.Endpoint,
				APIKey:        cfg.Web.APIKey,
				RatePerMinute: cfg.Web.RatePerMinute,
				Timeout:       cfg.Web.Timeout,
			})
		}
		scorer := credibility.NewScorer(cfg.Credibility.TrustedDomains, cfg.Credibility.BlockedDomains)
		w, err := retrieve.NewWeb(searcher, scorer)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.web = w
		web = retrieve.NewBreaker(w, breakerCfg)
	}

	channels := buildChannels(dense, bm25, web)
	if len(channels) == 0 {
		a.Close()
		return nil, serrors.ConfigError("no retrievers configured", nil).
			WithSuggestion("pass --corpus or --index, or enable web search")
	}

	engineOpts := []search.EngineOption{
		search.WithMetrics(a.metrics),
		search.WithReranker(newReranker(ctx, cfg, breakerCfg)),
	}
	if cfg.Cache.Enabled {
		rc, err := newResultCache(cfg.Cache)
		if err != nil {
			// A broken cache degrades to uncached search.
			slog.Warn("cache_unavailable", serrors.LogAttrs(err)...)
		} else {
			engineOpts = append(engineOpts, search.WithCache(rc))
		}
	}

	engine, err := search.NewEngine(channels, search.EngineConfigFrom(cfg), engineOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine
	return a, nil
}

// openIndexes loads an on-disk index or builds one in memory from a corpus
// file, and picks an embedder whose size matches the vectors.
func (a *app) openIndexes(ctx context.Context, cfg *config.Config, opts appOptions) error {
	switch {
	case opts.indexDir != "":
		ix, err := corpus.Open(opts.indexDir, store.DefaultBM25Config())
		if err != nil {
			return err
		}
		a.indexes = ix
		a.embedder = embed.NewCachedEmbedder(embed.NewStaticEmbedder(ix.Vectors.Dimensions()), cfg.Embeddings.CacheSize)

	case opts.corpusPath != "":
		docs, err := corpus.Load(opts.corpusPath)
		if err != nil {
			return err
		}
		emb := embed.NewCachedEmbedder(embed.NewStaticEmbedder(cfg.Embeddings.Dimensions), cfg.Embeddings.CacheSize)
		builder, err := newBuilder(cfg, emb)
		if err != nil {
			return err
		}
		ix, err := builder.Build(ctx, docs)
		if err != nil {
			return err
		}
		a.indexes = ix
		a.embedder = emb
	}
	return nil
}

func newBuilder(cfg *config.Config, emb embed.Embedder) (*corpus.Builder, error) {
	return corpus.NewBuilder(emb,
		corpus.WithBackend(strings.ToLower(cfg.Search.SparseBackend)),
		corpus.WithWorkers(cfg.Embeddings.Workers),
	)
}

// buildChannels maps each search type to the retrievers that can serve it.
// Hybrid search merges the BM25 and web lists on its sparse side.
func buildChannels(dense, bm25, web search.Retriever) map[search.SearchType]search.Channel {
	channels := make(map[search.SearchType]search.Channel)
	if dense != nil {
		channels[search.SearchTypeDocument] = search.Channel{Dense: dense, Sparse: bm25}
	}
	if web != nil {
		channels[search.SearchTypeWeb] = search.Channel{Sparse: web}
	}

	var sparse search.Retriever
	switch {
	case bm25 != nil && web != nil:
		if m, err := retrieve.NewMerged("sparse", bm25, web); err == nil {
			sparse = m
		}
	case bm25 != nil:
		sparse = bm25
	case web != nil:
		sparse = web
	}
	if dense != nil || sparse != nil {
		channels[search.SearchTypeHybrid] = search.Channel{Dense: dense, Sparse: sparse}
	}
	return channels
}

// newReranker connects to the cross-encoder server when enabled. An
// unreachable server is not fatal: the rerank stage is skipped.
func newReranker(ctx context.Context, cfg *config.Config, breakerCfg resilience.BreakerConfig) search.Reranker {
	if !cfg.Rerank.Enabled {
		return &search.NoOpReranker{}
	}
	r, err := search.NewHTTPReranker(ctx, search.HTTPRerankerConfig{
		Endpoint: cfg.Rerank.Endpoint,
		Model:    cfg.Rerank.Model,
		Timeout:  cfg.Rerank.Timeout,
		Breaker:  breakerCfg,
	})
	if err != nil {
		slog.Warn("reranker_unavailable",
			slog.String("endpoint", cfg.Rerank.Endpoint),
			slog.String("error", err.Error()))
		return &search.NoOpReranker{}
	}
	return r
}

// newResultCache creates the response cache on the configured backend.
func newResultCache(cc config.CacheConfig) (*search.ResultCache, error) {
	cacheCfg := cache.Config{TTL: cc.TTL, Shards: cc.Shards}
	if strings.EqualFold(cc.Backend, "badger") {
		backend, err := cache.OpenBadgerBackend[*search.SearchResponse](cc.Path)
		if err != nil {
			return nil, serrors.CacheUnavailable("open", err)
		}
		return cache.New[*search.SearchResponse](backend, cacheCfg), nil
	}
	return cache.NewMemory[*search.SearchResponse](cc.Capacity, cacheCfg)
}

// Close releases the engine, the indexes and the web client.
func (a *app) Close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.indexes != nil {
		errs = append(errs, a.indexes.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.web != nil {
		errs = append(errs, a.web.Close())
	}
	return errors.Join(errs...)
}
