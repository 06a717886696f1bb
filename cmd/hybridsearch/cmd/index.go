package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/corpus"
	"github.com/Aman-CERP/hybridsearch/internal/embed"
	"github.com/Aman-CERP/hybridsearch/internal/output"
)

func newIndexCmd(g *globalOptions) *cobra.Command {
	var corpusPath, outDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build an on-disk index from a corpus file",
		Long: `Build the vector graph, the BM25 index and the document table for a
corpus and write them to a directory. Pass the directory to
'hybridsearch search --index'.

A lock file in the output directory keeps concurrent builds from
interleaving. Rebuilding replaces the previous index.`,
		Example: `  hybridsearch index --corpus docs.yaml --out ./index`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, g, corpusPath, outDir)
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Corpus file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, g *globalOptions, corpusPath, outDir string) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := g.loadedConfig()
	if err != nil {
		return err
	}

	docs, err := corpus.Load(corpusPath)
	if err != nil {
		return err
	}
	out.Statusf("→", "Indexing %d documents from %s", len(docs), corpusPath)

	emb := embed.NewStaticEmbedder(cfg.Embeddings.Dimensions)
	defer emb.Close()

	builder, err := newBuilder(cfg, emb)
	if err != nil {
		return err
	}

	start := time.Now()
	ix, err := builder.BuildDir(ctx, outDir, docs)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if err := ix.Close(); err != nil {
		slog.Warn("index_close_failed", slog.String("error", err.Error()))
	}

	out.Successf("Indexed %d documents into %s (%s, %s)",
		len(docs), outDir, cfg.Search.SparseBackend, time.Since(start).Round(time.Millisecond))
	return nil
}
