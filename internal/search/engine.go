package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/hybridsearch/internal/cache"
	"github.com/Aman-CERP/hybridsearch/internal/citation"
	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/telemetry"
)

// ResultCache is the cache type the engine stores responses in.
type ResultCache = cache.Cache[*SearchResponse]

// Engine runs the hybrid retrieval pipeline.
type Engine struct {
	channels  map[SearchType]Channel
	config    EngineConfig
	reranker  Reranker
	cache     *ResultCache
	citations CitationFormatter
	metrics   *telemetry.Metrics
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithReranker sets the cross-encoder used on the head of each result list.
// A nil or no-op reranker disables the stage.
func WithReranker(r Reranker) EngineOption {
	return func(e *Engine) {
		if _, noop := r.(*NoOpReranker); noop {
			r = nil
		}
		e.reranker = r
	}
}

// WithCache stores responses in c. The engine owns c and closes it on Close.
func WithCache(c *ResultCache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCitationFormatter replaces the default citation formatter. A nil
// formatter leaves responses without citations.
func WithCitationFormatter(f CitationFormatter) EngineOption {
	return func(e *Engine) {
		e.citations = f
	}
}

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *telemetry.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine serving the search types present in channels.
// A document channel needs a dense retriever, a web channel needs a sparse
// (web) retriever, and a hybrid channel needs at least one retriever.
func NewEngine(channels map[SearchType]Channel, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if len(channels) == 0 {
		return nil, serrors.ConfigError("no search channels configured", nil)
	}
	for st, ch := range channels {
		switch st {
		case SearchTypeDocument:
			if ch.Dense == nil {
				return nil, serrors.ConfigError("document search requires a dense retriever", nil)
			}
		case SearchTypeWeb:
			if ch.Sparse == nil {
				return nil, serrors.ConfigError("web search requires a web retriever", nil)
			}
		case SearchTypeHybrid:
			if ch.expected() == 0 {
				return nil, serrors.ConfigError("hybrid search requires at least one retriever", nil)
			}
		default:
			return nil, serrors.ConfigError(fmt.Sprintf("unknown search type %q", st), nil)
		}
	}

	e := &Engine{
		channels:  channels,
		config:    cfg.withDefaults(),
		citations: StyledCitations{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the effective engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Search validates req and serves it from the cache or a fresh pipeline
// run. Only InvalidRequest and AllRetrievalFailed errors (or the caller's
// own cancellation) are returned; other component failures degrade the
// response instead.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	req, err := Validate(req, e.config)
	if err != nil {
		e.metrics.ObserveRequest(string(req.SearchType), telemetry.OutcomeError, time.Since(start))
		return nil, err
	}
	if _, ok := e.channels[req.SearchType]; !ok {
		e.metrics.ObserveRequest(string(req.SearchType), telemetry.OutcomeError, time.Since(start))
		return nil, serrors.InvalidRequest("search type %q is not available", req.SearchType)
	}

	resp, cached, err := e.lookupOrCompute(ctx, req)
	if err != nil {
		e.metrics.ObserveRequest(string(req.SearchType), telemetry.OutcomeError, time.Since(start))
		return nil, err
	}

	out := resp.Clone()
	out.Cached = cached
	if cached {
		out.ResponseTimeMs = time.Since(start).Milliseconds()
	}

	outcome := telemetry.OutcomeOK
	if len(out.Degraded) > 0 {
		outcome = telemetry.OutcomeDegraded
	}
	e.metrics.ObserveRequest(string(req.SearchType), outcome, time.Since(start))
	return out, nil
}

func (e *Engine) lookupOrCompute(ctx context.Context, req SearchRequest) (*SearchResponse, bool, error) {
	compute := func(ctx context.Context) (*SearchResponse, error) {
		return e.run(ctx, req)
	}

	if e.cache == nil || !*req.EnableCache {
		e.metrics.ObserveCache("bypass")
		resp, err := compute(ctx)
		return resp, false, err
	}

	resp, hit, err := e.cache.GetOrCompute(ctx, Canonicalize(req), compute)
	switch {
	case err == nil:
		if hit {
			e.metrics.ObserveCache("hit")
		} else {
			e.metrics.ObserveCache("miss")
		}
		return resp, hit, nil

	case errors.Is(err, serrors.ErrCacheBackendUnavailable):
		e.metrics.ObserveCache("error")
		slog.Warn("cache_bypassed", serrors.LogAttrs(err)...)
		resp, err := compute(ctx)
		return resp, false, err

	default:
		return nil, false, err
	}
}

// retrieval is the outcome of one retriever call.
type retrieval struct {
	cands    []Candidate
	ok       bool
	err      error
	degraded []string
}

// run executes the pipeline for a validated request.
func (e *Engine) run(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	ch := e.channels[req.SearchType]
	kPrime := max(2*req.K, 10)

	denseTimeout, sparseTimeout := e.config.DenseTimeout, e.config.SparseTimeout
	weights := e.config.Weights
	if req.SearchType == SearchTypeWeb {
		sparseTimeout = e.config.WebTimeout
		weights = webWeights
	}

	var dense, sparse retrieval
	g, gctx := errgroup.WithContext(ctx)
	if ch.Dense != nil {
		g.Go(func() error {
			dense = e.retrieve(gctx, ch.Dense, req, kPrime, denseTimeout)
			return nil
		})
	}
	if ch.Sparse != nil {
		g.Go(func() error {
			sparse = e.retrieve(gctx, ch.Sparse, req, kPrime, sparseTimeout)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkRequired(req.SearchType, ch, dense, sparse); err != nil {
		return nil, err
	}

	var degraded []string
	degraded = append(degraded, dense.degraded...)
	degraded = append(degraded, sparse.degraded...)

	fused := Fuse(dense.cands, sparse.cands, weights)
	fused = filterBySource(fused, req.SourceFilter)
	fused, dropped := FilterByCredibility(fused, *req.MinCredibility)
	e.metrics.AddCredibilityDropped(dropped)

	reranked := false
	if e.reranker != nil && len(fused) > 0 {
		rctx, cancel := context.WithTimeout(ctx, e.config.RerankTimeout)
		out, err := rerankHead(rctx, e.reranker, req.Query, fused, e.config.RerankTopK)
		cancel()
		if err != nil {
			e.metrics.ObserveRerank(telemetry.OutcomeError)
			slog.Warn("rerank_unavailable", serrors.LogAttrs(err)...)
		} else {
			e.metrics.ObserveRerank(telemetry.OutcomeOK)
			reranked = true
		}
		fused = out
	} else {
		e.metrics.ObserveRerank("skipped")
	}

	results := fused
	if len(results) > req.K {
		results = results[:req.K]
	}
	assignScores(results)

	contributing := 0
	if len(dense.cands) > 0 {
		contributing++
	}
	if len(sparse.cands) > 0 {
		contributing++
	}

	conf, quality := Assess(results, req.K, Signals{
		SingleRetriever: ch.expected() == 2 && contributing < 2,
		Reranked:        reranked,
		Degraded:        len(degraded) > 0,
	}, e.config.Confidence)

	resp := &SearchResponse{
		Query:        req.Query,
		SearchType:   req.SearchType,
		Results:      results,
		TotalResults: len(results),
		Sources:      collectSources(results),
		Citations:    e.formatCitations(results, citation.Style(req.CitationStyle)),
		Confidence:   conf,
		Quality:      quality,
		Degraded:     degraded,
		RequestID:    uuid.NewString(),
	}
	resp.ResponseTimeMs = time.Since(start).Milliseconds()
	e.metrics.ObserveResults(len(results))

	slog.Debug("search_complete",
		slog.String("request_id", resp.RequestID),
		slog.String("search_type", string(req.SearchType)),
		slog.Int("dense", len(dense.cands)),
		slog.Int("sparse", len(sparse.cands)),
		slog.Int("results", len(results)),
		slog.Bool("reranked", reranked),
		slog.Float64("confidence", conf),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// retrieve calls r under its own timeout. Failures are logged and reported
// in the returned retrieval, never as an error that cancels its sibling.
func (e *Engine) retrieve(ctx context.Context, r Retriever, req SearchRequest, k int, timeout time.Duration) retrieval {
	start := time.Now()
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cands, err := r.Retrieve(rctx, req.Query, k, req.SourceFilter)

	var partial *PartialError
	switch {
	case err == nil:
		e.metrics.ObserveRetriever(r.Name(), telemetry.OutcomeOK, time.Since(start), len(cands))
		return retrieval{cands: cands, ok: true}

	case errors.As(err, &partial):
		e.metrics.ObserveRetriever(r.Name(), telemetry.OutcomeDegraded, time.Since(start), len(cands))
		slog.Warn("retriever_partial",
			slog.String("retriever", r.Name()),
			slog.Any("failed", partial.Failed),
			slog.String("error", partial.Err.Error()))
		return retrieval{cands: cands, ok: true, degraded: partial.Failed}
	}

	outcome := telemetry.OutcomeError
	if errors.Is(rctx.Err(), context.DeadlineExceeded) {
		outcome = telemetry.OutcomeTimeout
	}
	e.metrics.ObserveRetriever(r.Name(), outcome, time.Since(start), 0)

	unavailable := err
	if !errors.Is(err, serrors.ErrRetrieverUnavailable) {
		unavailable = serrors.RetrieverUnavailable(r.Name(), err)
	}
	if ctx.Err() == nil {
		slog.Warn("retriever_unavailable",
			append(serrors.LogAttrs(unavailable), slog.String("outcome", outcome))...)
	}
	return retrieval{err: unavailable, degraded: []string{r.Name()}}
}

// checkRequired applies the per-search-type availability policy.
func checkRequired(st SearchType, ch Channel, dense, sparse retrieval) error {
	switch st {
	case SearchTypeDocument:
		if !dense.ok {
			return serrors.AllRetrievalFailed(errorsOf(dense, sparse)...)
		}
	case SearchTypeWeb:
		if !sparse.ok {
			return serrors.AllRetrievalFailed(errorsOf(sparse)...)
		}
	default:
		if (ch.Dense == nil || !dense.ok) && (ch.Sparse == nil || !sparse.ok) {
			return serrors.AllRetrievalFailed(errorsOf(dense, sparse)...)
		}
	}
	return nil
}

func errorsOf(rs ...retrieval) []error {
	var errs []error
	for _, r := range rs {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errs
}

// assignScores sets each result's final ranking key. A candidate without a
// rerank score that follows reranked ones is capped at its predecessor's key
// so the sequence never increases.
func assignScores(results []Candidate) {
	for i := range results {
		key := results[i].RankingKey()
		if i > 0 && key > results[i-1].Score {
			key = results[i-1].Score
		}
		results[i].Score = key
	}
}

// collectSources returns the distinct source labels of results in order.
func collectSources(results []Candidate) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, c := range results {
		label := c.Metadata.Source
		if label == "" {
			label = string(c.SourceType)
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		sources = append(sources, label)
	}
	return sources
}

func (e *Engine) formatCitations(results []Candidate, style citation.Style) []string {
	if e.citations == nil || len(results) == 0 {
		return []string{}
	}
	n := min(e.config.MaxCitations, len(results))
	return e.citations.FormatCitations(results[:n], style)
}

// ClearCache drops every cached response. It is idempotent and a no-op
// without a cache.
func (e *Engine) ClearCache() error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Clear(); err != nil {
		return err
	}
	slog.Info("cache_cleared")
	return nil
}

// CacheStats returns the cache counters, or zero stats without a cache.
func (e *Engine) CacheStats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

// Close releases the cache and reranker.
func (e *Engine) Close() error {
	var errs []error
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	if e.reranker != nil {
		errs = append(errs, e.reranker.Close())
	}
	return errors.Join(errs...)
}
