package config

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/rustyeddy/volstat/config"
)

// New returns the "config" command group.
func New(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage volstat configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  volstat config init --output volstat.yaml
  volstat config validate --file volstat.yaml`,
		// the file under test may be the one --config points at
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	cmd.AddCommand(newInitCmd(), newValidateCmd())
	return cmd
}

func newInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appconfig.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  volstat --config %s stats data/processed/XAUUSD.csv\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "volstat.yaml", "output config file path")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Analysis: %s / %s (quantile %.2f, filter %t)\n",
				cfg.Analysis.Method, cfg.Analysis.Policy, cfg.Analysis.Quantile, cfg.Analysis.Filter)
			fmt.Fprintf(out, "  Symbols:  %d\n", len(cfg.Symbols))
			fmt.Fprintf(out, "  Journal:  %s (%s)\n", cfg.Journal.Type, cfg.Journal.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
