package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/volstat/internal/cli/config"
	"github.com/rustyeddy/volstat/internal/cli/data"
	"github.com/rustyeddy/volstat/internal/cli/journal"
	"github.com/rustyeddy/volstat/internal/cli/serve"
	"github.com/rustyeddy/volstat/internal/cli/stats"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

func NewRootCmd() *cobra.Command {
	rc := &config.RootConfig{}

	cmd := &cobra.Command{
		Use:           "volstat",
		Short:         "volstat: per-year volatility tables and black-swan filtering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./volstat.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.Init(cmd)
	}

	// Subcommands
	cmd.AddCommand(
		stats.New(rc),
		data.NewExtractCmd(rc),
		data.NewFetchCmd(rc),
		journal.New(rc),
		serve.NewServeCmd(rc),
		serve.NewWatchCmd(rc),
		config.New(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "volstat (%s)\n", Version)
		},
	})

	return cmd
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
