package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/volstat/analysis"
)

// Text prints each report as a titled year table followed by its stats.
type Text struct{}

func (Text) Extension() string { return "txt" }

func (Text) Export(w io.Writer, reps []analysis.Report) error {
	for i, r := range reps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := PrintReport(w, r); err != nil {
			return err
		}
	}
	return nil
}

// PrintReport writes one report in the terminal layout.
func PrintReport(w io.Writer, r analysis.Report) error {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s: %s (%s)\n", r.Symbol, r.Title(), r.Method)
	fmt.Fprintln(w, "==================================================")

	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Created:    %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Years:      %d-%d (%d bars)\n", r.StartYear, r.EndYear, r.Bars)
	fmt.Fprintf(w, "NaN policy: %s\n", r.Policy)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tVolatility %\t")
	for _, row := range analysis.Table(r.Volatility) {
		fmt.Fprintf(tw, "%s\t%s\t\n", row.Year, row.Percent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Filtered {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Black swans (q=%.2f, threshold %s%%)\n", r.Quantile, pct(r.Threshold))
		fmt.Fprintln(w, "--------------------------------------------------")
		if len(r.Removed) == 0 {
			fmt.Fprintln(w, "(none)")
		}
		for _, yv := range r.Removed {
			fmt.Fprintf(w, "%d  %s\n", yv.Year, pct(yv.Value))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stats")
	fmt.Fprintln(w, "--------------------------------------------------")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, kv := range analysis.StatsTable(r.Stats) {
		fmt.Fprintf(tw, "%s\t%s\n", kv[0], kv[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Bands != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Last close: %.2f  mean %.2f  sd %.2f\n", r.LastClose, r.Bands.Mean, r.Bands.Stdev)
	}
	return nil
}
