// Package cmd provides the CLI commands for hybridsearch.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/config"
	"github.com/Aman-CERP/hybridsearch/internal/logging"
	"github.com/Aman-CERP/hybridsearch/internal/profiling"
	"github.com/Aman-CERP/hybridsearch/pkg/version"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool
	profile    profiling.Options

	cfg            *config.Config
	cfgErr         error
	loggingCleanup func()
	profiler       *profiling.Profiler
}

// NewRootCmd creates the root command for the hybridsearch CLI.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "hybridsearch",
		Short: "Hybrid dense + keyword retrieval with reranking and citations",
		Long: `hybridsearch answers a query from a local document corpus, the web,
or both. Dense (embedding) and BM25 keyword results are fused, web results
are filtered by source credibility, and the head of the list is optionally
reranked by a cross-encoder server.

Responses carry a confidence score, a quality band and formatted citations.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("hybridsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default: .hybridsearch.yaml in the working directory)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging to ~/.hybridsearch/logs/")

	cmd.PersistentFlags().StringVar(&g.profile.CPUPath, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.PersistentFlags().StringVar(&g.profile.HeapPath, "memprofile", "", "Write a heap profile to this file on exit")
	cmd.PersistentFlags().StringVar(&g.profile.TracePath, "trace", "", "Write an execution trace to this file")
	for _, name := range []string{"cpuprofile", "memprofile", "trace"} {
		_ = cmd.PersistentFlags().MarkHidden(name)
	}

	cmd.PersistentPreRunE = g.before
	cmd.PersistentPostRunE = g.after

	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newIndexCmd(g))
	cmd.AddCommand(newCacheCmd(g))
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (g *globalOptions) before(cmd *cobra.Command, args []string) error {
	if err := g.startLogging(cmd, args); err != nil {
		return err
	}
	if g.profile.Enabled() {
		p, err := profiling.Start(g.profile)
		if err != nil {
			return err
		}
		g.profiler = p
	}
	return nil
}

func (g *globalOptions) after(cmd *cobra.Command, args []string) error {
	var err error
	if g.profiler != nil {
		err = g.profiler.Stop()
		g.profiler = nil
	}
	return errors.Join(err, g.stopLogging(cmd, args))
}

// startLogging loads the configuration and installs the process logger.
// Debug mode adds a JSON log file; otherwise stderr gets records at or above
// logging.level. A configuration error is reported by the command that
// needs the configuration, not here.
func (g *globalOptions) startLogging(cmd *cobra.Command, _ []string) error {
	g.cfg, g.cfgErr = g.loadConfig()

	cfg := logging.DefaultConfig()
	if g.cfg != nil {
		cfg.Level = g.cfg.Logging.Level
	}
	if g.debug {
		cfg = logging.DebugConfig()
	}
	cfg.Stderr = cmd.ErrOrStderr()

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	g.loggingCleanup = cleanup
	slog.SetDefault(logger)

	if g.debug {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}
	return nil
}

func (g *globalOptions) stopLogging(_ *cobra.Command, _ []string) error {
	if g.loggingCleanup != nil {
		g.loggingCleanup()
		g.loggingCleanup = nil
	}
	return nil
}

// loadedConfig returns the configuration loaded before the command ran.
func (g *globalOptions) loadedConfig() (*config.Config, error) {
	if g.cfg == nil && g.cfgErr == nil {
		g.cfg, g.cfgErr = g.loadConfig()
	}
	return g.cfg, g.cfgErr
}

// loadConfig reads the --config file when given, else the project config in
// the working directory.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	if g.configPath != "" {
		return config.LoadFile(g.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return config.Load(wd)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
