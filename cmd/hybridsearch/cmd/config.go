package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/hybridsearch/configs"
	"github.com/Aman-CERP/hybridsearch/internal/config"
	"github.com/Aman-CERP/hybridsearch/internal/output"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Inspect and create configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/hybridsearch/config.yaml)
  3. Project config (.hybridsearch.yaml) or --config FILE
  4. Environment variables (HYBRIDSEARCH_*, SERPER_API_KEY)`,
		Example: `  # Create user config with the defaults
  hybridsearch config init

  # Show effective configuration
  hybridsearch config show

  # Print user config file path
  hybridsearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd(g))
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd(g *globalOptions) *cobra.Command {
	var (
		force    bool
		resolved bool
		path     string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Write a commented configuration template. The file goes to the user
config path unless --path is given.

With --resolved, the effective configuration (defaults, files and
environment merged) is written instead. API keys are never written.`,
		Example: `  # Create user config from template
  hybridsearch config init

  # Capture the current settings as a project config
  hybridsearch config init --resolved --path .hybridsearch.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, g, path, force, resolved)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "Write the effective configuration instead of the template")
	cmd.Flags().StringVar(&path, "path", "", "Destination (default: user config path)")

	return cmd
}

func newConfigShowCmd(g *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, g, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, g *globalOptions, path string, force, resolved bool) error {
	out := output.New(cmd.OutOrStdout())

	if path == "" {
		path = config.GetUserConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		out.Warning("Configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Status("💡", "Use --force to overwrite it")
		return nil
	}

	if resolved {
		cfg, err := g.loadedConfig()
		if err != nil {
			return err
		}
		if err := cfg.WriteYAML(path); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, g *globalOptions, jsonOutput bool) error {
	cfg, err := g.loadedConfig()
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), cfg)
	}

	shown := *cfg
	if shown.Web.APIKey != "" {
		shown.Web.APIKey = "<redacted>"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
