package stats

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/dataset"
	"github.com/rustyeddy/volstat/internal/cli/config"
	"github.com/rustyeddy/volstat/report"
	"github.com/rustyeddy/volstat/volatility"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		symbol    string
		method    string
		timeframe string
		policy    string
		startYear int
		endYear   int
		filter    bool
		quantile  float64
		format    string
		outPath   string
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "stats <csv>",
		Short: "Per-year volatility tables and summary stats for a price CSV",
		Long: `Compute the per-year volatility of a price CSV and print the daily and
the annualized table with min/max/mean, the two panels of the dashboard.

Examples:
  volstat stats data/processed/XAUUSD.csv
  volstat stats gold.csv --method hlo --timeframe yearly --filter --q 0.95
  volstat stats gold.csv --format xlsx --out gold.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rc.Request()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("method") {
				if req.Method, err = volatility.ParseMethod(method); err != nil {
					return err
				}
			}
			if flags.Changed("policy") {
				if req.Policy, err = volatility.ParseNaNPolicy(policy); err != nil {
					return err
				}
			}
			if flags.Changed("start") {
				req.StartYear = startYear
			}
			if flags.Changed("end") {
				req.EndYear = endYear
			}
			if flags.Changed("filter") {
				req.Filter = filter
			}
			if flags.Changed("q") {
				if quantile < 0 || quantile > 1 {
					return fmt.Errorf("invalid --q %v: %w", quantile, volatility.ErrInvalidQuantile)
				}
				req.Quantile = quantile
			}

			exp, err := report.NewExporter(format)
			if err != nil {
				return err
			}
			if outPath == "" && (format == "xlsx" || format == "parquet") {
				return fmt.Errorf("--format %s needs --out", format)
			}

			series, err := dataset.LoadFile(args[0])
			if err != nil {
				return err
			}
			if symbol != "" {
				series.Symbol = strings.ToUpper(symbol)
			}

			var reps []analysis.Report
			switch strings.ToLower(timeframe) {
			case "", "both":
				reps, err = analysis.Panels(series, req)
			default:
				if req.Timeframe, err = volatility.ParseTimeframe(timeframe); err != nil {
					return err
				}
				var rep analysis.Report
				rep, err = analysis.Run(series, req)
				reps = []analysis.Report{rep}
			}
			if err != nil {
				return err
			}

			if record {
				j, err := rc.OpenJournal()
				if err != nil {
					return err
				}
				defer j.Close()
				for i := range reps {
					if _, err := j.Record(cmd.Context(), &reps[i]); err != nil {
						return err
					}
				}
			}

			if outPath != "" {
				if err := report.WriteFile(exp, outPath, reps); err != nil {
					return err
				}
				rc.Logger().Info("report written", "path", outPath, "format", exp.Extension())
				return nil
			}
			return exp.Export(cmd.OutOrStdout(), reps)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol name (default: file name)")
	cmd.Flags().StringVar(&method, "method", "percentage", "Return transform: percentage|hlo")
	cmd.Flags().StringVar(&timeframe, "timeframe", "both", "daily|yearly|both")
	cmd.Flags().StringVar(&policy, "policy", "propagate", "Undefined-year policy: propagate|drop|raise")
	cmd.Flags().IntVar(&startYear, "start", 0, "First year to include (0 = all)")
	cmd.Flags().IntVar(&endYear, "end", 0, "Last year to include (0 = all)")
	cmd.Flags().BoolVar(&filter, "filter", false, "Remove black-swan years above the quantile")
	cmd.Flags().Float64Var(&quantile, "q", analysis.DefaultQuantile, "Outlier quantile in [0,1]")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: "+strings.Join(report.Formats, "|"))
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&record, "record", false, "Also record the runs in the journal")

	return cmd
}
