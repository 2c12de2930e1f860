package data

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/rustyeddy/volstat/config"
	"github.com/rustyeddy/volstat/dataset"
	"github.com/rustyeddy/volstat/internal/cli/config"
	"github.com/rustyeddy/volstat/oanda"
)

// NewExtractCmd returns "extract": normalize every raw CSV into the
// processed directory.
func NewExtractCmd(rc *config.RootConfig) *cobra.Command {
	var inDir, outDir string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Normalize raw chart exports into time,open,high,low,close,volume CSVs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if inDir == "" {
				inDir = cfg.Data.RawDir
			}
			if outDir == "" {
				outDir = cfg.Data.ProcessedDir
			}

			results, err := dataset.ExtractTransform(cmd.Context(), inDir, outDir, rc.Logger())
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %-20s %v\n", r.Name, r.Err)
					continue
				}
				fmt.Fprintf(out, "ok   %-20s %d rows\n", r.Name, r.Rows)
			}
			fmt.Fprintf(out, "%d files, %d failed\n", len(results), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inDir, "in", "", "Raw CSV directory (default from config data.raw_dir)")
	cmd.Flags().StringVar(&outDir, "out", "", "Processed CSV directory (default from config data.processed_dir)")
	return cmd
}

// NewFetchCmd returns "fetch": download historical candles from OANDA into
// the processed CSV layout.
func NewFetchCmd(rc *config.RootConfig) *cobra.Command {
	var (
		symbol      string
		instrument  string
		env         string
		token       string
		granularity string
		price       string
		count       int
		fromStr     string
		toStr       string
		outPath     string
		baseURL     string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch historical candles from OANDA and write a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config().Oanda
			flags := cmd.Flags()

			if token == "" {
				token = cfg.Token
			}
			if token == "" {
				token = strings.TrimSpace(os.Getenv("OANDA_TOKEN"))
			}
			if token == "" {
				return fmt.Errorf("missing token: set --token, oanda.token or env VOLSTAT_OANDA_TOKEN")
			}
			if !flags.Changed("env") {
				env = cfg.Env
			}
			if !flags.Changed("granularity") {
				granularity = cfg.Granularity
			}
			if !flags.Changed("price") {
				price = cfg.Price
			}
			if !flags.Changed("count") {
				count = cfg.Count
			}

			if instrument == "" {
				if symbol == "" {
					return fmt.Errorf("missing --symbol or --instrument")
				}
				var err error
				if instrument, err = oanda.InstrumentFor(symbol); err != nil {
					return err
				}
			}
			if outPath == "" {
				name := symbol
				if name == "" {
					name = strings.ReplaceAll(instrument, "_", "")
				}
				sym, ok := rc.Config().Symbol(name)
				if !ok {
					sym = appconfig.SymbolConfig{Name: name}
				}
				outPath = rc.Config().CSVPath(sym)
			}

			var from, to time.Time
			var err error
			if fromStr != "" {
				if from, err = dataset.ParseTime(fromStr); err != nil {
					return fmt.Errorf("bad --from: %w", err)
				}
			}
			if toStr != "" {
				if to, err = dataset.ParseTime(toStr); err != nil {
					return fmt.Errorf("bad --to: %w", err)
				}
			}
			if !from.IsZero() && !to.IsZero() && !from.Before(to) {
				return fmt.Errorf("--from must be before --to")
			}
			if (!from.IsZero() || !to.IsZero()) && !flags.Changed("count") {
				count = 0
			}

			client, err := oanda.NewClient(env, token)
			if err != nil {
				return err
			}
			if baseURL != "" {
				client.BaseURL = baseURL
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			series, err := client.FetchCandles(ctx, oanda.CandlesOptions{
				Instrument:  instrument,
				Granularity: granularity,
				Price:       price,
				From:        from,
				To:          to,
				Count:       count,
			})
			if err != nil {
				return err
			}

			if err := dataset.SaveFile(outPath, series); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d candles (%s %s) to %s\n", series.Len(), instrument, granularity, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Dashboard symbol, e.g. XAUUSD")
	cmd.Flags().StringVar(&instrument, "instrument", "", "OANDA instrument, e.g. XAU_USD (overrides --symbol mapping)")
	cmd.Flags().StringVar(&env, "env", "practice", "OANDA environment: practice|live")
	cmd.Flags().StringVar(&token, "token", "", "OANDA API token (or env VOLSTAT_OANDA_TOKEN / OANDA_TOKEN)")
	cmd.Flags().StringVar(&granularity, "granularity", "D", "Candle granularity, e.g. D, H1")
	cmd.Flags().StringVar(&price, "price", "M", "Price component: M|B|A")
	cmd.Flags().IntVar(&count, "count", oanda.MaxCount, "Number of candles when --from/--to are not both set")
	cmd.Flags().StringVar(&fromStr, "from", "", "Start time (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&toStr, "to", "", "End time (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output CSV path (default: processed dir/<SYMBOL>.csv)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override OANDA base URL (for testing)")

	return cmd
}
