package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/output"
	"github.com/Aman-CERP/hybridsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	searchType     string
	k              int
	source         string
	minCredibility float64
	noCache        bool
	style          string
	corpus         string
	index          string
	format         string // "auto", "text", "json"
	stats          bool
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus, the web, or both",
		Long: `Search a document corpus and/or the web.

Document search fuses dense (embedding) and BM25 keyword results. Web search
ranks results by position and drops sources below the credibility floor.
Hybrid search (the default) does both and merges the keyword and web lists.

Examples:
  hybridsearch search "carbon tax effects" --corpus docs.yaml
  hybridsearch search "carbon tax effects" --index ./index --type document -k 5
  hybridsearch search "latest IPCC report" --type web --min-credibility 0.7
  hybridsearch search "solar efficiency" --corpus docs.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, g, query, opts, appOptions{
				corpusPath: opts.corpus,
				indexDir:   opts.index,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.searchType, "type", "t", string(search.SearchTypeHybrid), "Search type: hybrid, document, web")
	cmd.Flags().IntVarP(&opts.k, "k", "k", 0, "Number of results (default: search.default_k)")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Keep only results whose source label matches exactly")
	cmd.Flags().Float64Var(&opts.minCredibility, "min-credibility", 0, "Drop web results below this credibility (default: search.default_min_credibility)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().StringVar(&opts.style, "style", "", "Citation style: apa, mla, chicago (default: citations.style)")
	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Corpus file (.yaml, .yml or .json) indexed in memory")
	cmd.Flags().StringVar(&opts.index, "index", "", "Directory written by 'hybridsearch index'")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "auto", "Output format: auto, text, json")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print cache and pipeline counters to stderr")
	cmd.MarkFlagsMutuallyExclusive("corpus", "index")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, g *globalOptions, query string, opts searchOptions, aopts appOptions) error {
	format, err := resolveFormat(opts.format, cmd)
	if err != nil {
		return err
	}

	cfg, err := g.loadedConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, aopts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	req := search.SearchRequest{
		Query:         query,
		SearchType:    search.SearchType(strings.ToLower(opts.searchType)),
		K:             opts.k,
		SourceFilter:  opts.source,
		CitationStyle: opts.style,
	}
	if cmd.Flags().Changed("min-credibility") {
		req.MinCredibility = search.Float(opts.minCredibility)
	}
	if opts.noCache {
		req.EnableCache = search.Bool(false)
	}

	slog.Info("search_started",
		slog.String("query", query),
		slog.String("search_type", string(req.SearchType)),
		slog.Int("k", req.K))

	resp, err := a.engine.Search(ctx, req)
	if err != nil {
		return err
	}

	slog.Info("search_complete",
		slog.Int("results", resp.TotalResults),
		slog.Bool("cached", resp.Cached),
		slog.String("quality", string(resp.Quality)))

	if format == "json" {
		if err := output.JSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		output.NewResponseRenderer(cmd.OutOrStdout()).Render(resp)
	}

	if opts.stats {
		counters, err := a.metrics.Counters()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		output.NewResponseRenderer(cmd.ErrOrStderr()).RenderStats(a.engine.CacheStats(), counters)
	}
	return nil
}

// resolveFormat maps "auto" to text on a terminal and JSON otherwise.
func resolveFormat(format string, cmd *cobra.Command) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return "json", nil
	case "text":
		return "text", nil
	case "auto", "":
		if output.IsTTY(cmd.OutOrStdout()) {
			return "text", nil
		}
		return "json", nil
	default:
		return "", fmt.Errorf("invalid format %q (valid: auto, text, json)", format)
	}
}
