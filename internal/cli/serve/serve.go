package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/volstat/internal/cli/config"
	"github.com/rustyeddy/volstat/report"
	"github.com/rustyeddy/volstat/scheduler"
	"github.com/rustyeddy/volstat/server"
)

// NewServeCmd returns "serve": the dashboard JSON API.
func NewServeCmd(rc *config.RootConfig) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the volatility dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			req, err := rc.Request()
			if err != nil {
				return err
			}

			srv := server.New(rc.Loader(), server.Options{
				Defaults:     req,
				Bins:         cfg.Analysis.Bins,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}, rc.Logger())

			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	return cmd
}

// NewWatchCmd returns "watch": periodic snapshots into the journal.
func NewWatchCmd(rc *config.RootConfig) *cobra.Command {
	var (
		spec string
		once bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Record volatility snapshots of every configured symbol on a cron schedule",
		Long: `Record volatility snapshots of every configured symbol on a cron
schedule (six fields, seconds first) until interrupted.

Examples:
  volstat watch
  volstat watch --cron "0 0 22 * * 1-5"
  volstat watch --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if spec == "" {
				spec = cfg.Schedule.Cron
			}

			req, err := rc.Request()
			if err != nil {
				return err
			}

			j, err := rc.OpenJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			s := scheduler.NewScheduler(ctx, rc.Loader(), j, rc.SymbolNames(), rc.Logger())
			s.Request = req
			if cfg.Schedule.Format != "" {
				if s.Exporter, err = report.NewExporter(cfg.Schedule.Format); err != nil {
					return err
				}
				s.OutDir = cfg.Schedule.OutDir
			}

			if once {
				failed := 0
				for _, r := range s.RunNow(ctx) {
					if r.Err != nil {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d symbols failed", failed, len(s.Symbols))
				}
				return nil
			}

			if err := s.Register(spec); err != nil {
				return err
			}
			s.Start()
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "Cron spec with seconds (default from config schedule.cron)")
	cmd.Flags().BoolVar(&once, "once", false, "Take one snapshot now and exit")
	return cmd
}
