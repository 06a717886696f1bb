package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/output"
)

func newCacheCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cmd.AddCommand(newCacheClearCmd(g))
	return cmd
}

func newCacheClearCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached response",
		Long: `Drop every cached response. Only the badger backend persists across
runs; the memory backend is per-process and always starts empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd, g)
		},
	}
}

func runCacheClear(cmd *cobra.Command, g *globalOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := g.loadedConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		out.Warning("Cache is disabled (cache.enabled: false)")
		return nil
	}

	rc, err := newResultCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer rc.Close()

	n := rc.Len()
	if err := rc.Clear(); err != nil {
		return err
	}
	out.Successf("Cleared %d cached responses (%s backend)", n, cfg.Cache.Backend)
	return nil
}
