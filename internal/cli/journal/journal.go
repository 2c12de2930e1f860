package journal

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/internal/cli/config"
	"github.com/rustyeddy/volstat/report"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List and show recorded volatility runs",
	}

	cmd.AddCommand(
		newListCmd(rc),
		newShowCmd(rc),
	)
	return cmd
}

func newListCmd(rc *config.RootConfig) *cobra.Command {
	var (
		symbol string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), symbol, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd, runs)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Only runs for this symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 = all)")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []analysis.Report) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSYMBOL\tMETHOD\tTIMEFRAME\tYEARS\tMIN\tMAX\tMEAN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d-%d\t%.2f\t%.2f\t%.2f\n",
			r.RunID, r.Created.Format(time.DateTime), r.Symbol, r.Method, r.Timeframe,
			r.StartYear, r.EndYear, r.Stats.Min, r.Stats.Max, r.Stats.Mean)
	}
	return tw.Flush()
}

func newShowCmd(rc *config.RootConfig) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := report.NewExporter(format)
			if err != nil {
				return err
			}

			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			rep, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return exp.Export(cmd.OutOrStdout(), []analysis.Report{rep})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|org|json")
	return cmd
}
