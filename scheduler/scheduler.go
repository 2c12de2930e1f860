// Package scheduler takes periodic volatility snapshots of every configured
// symbol and records them in the journal.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/internal/logx"
	"github.com/rustyeddy/volstat/journal"
	"github.com/rustyeddy/volstat/market"
	"github.com/rustyeddy/volstat/report"
	"github.com/rustyeddy/volstat/volatility"
)

// Loader returns the current series for a symbol.
type Loader interface {
	Load(ctx context.Context, symbol string) (market.Series, error)
}

// Result is the outcome of one symbol in a snapshot run.
type Result struct {
	Symbol string
	RunIDs []string
	Err    error
}

// Scheduler manages the snapshot cron task.
type Scheduler struct {
	Cron    *cron.Cron
	Loader  Loader
	Journal journal.Journal
	Symbols []string

	// Request carries the analysis defaults. Method and Timeframe are
	// overridden for every snapshot.
	Request analysis.Request

	// Exporter, when set, also writes each snapshot to OutDir.
	Exporter report.Exporter
	OutDir   string

	Ctx context.Context
	log *slog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, loader Loader, j journal.Journal, symbols []string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Loader:  loader,
		Journal: j,
		Symbols: symbols,
		Request: analysis.DefaultRequest(),
		Ctx:     ctx,
		log:     logx.OrDiscard(log).With(slog.String("component", "scheduler")),
	}
}

// Register adds the snapshot task on spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow(s.Ctx) }); err != nil {
		return fmt.Errorf("register snapshot task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", "symbols", len(s.Symbols))
}

// Stop stops the cron scheduler and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow takes one snapshot of every symbol. A failing symbol is logged and
// reported in its Result; the others still run.
func (s *Scheduler) RunNow(ctx context.Context) []Result {
	out := make([]Result, 0, len(s.Symbols))
	for _, sym := range s.Symbols {
		if err := ctx.Err(); err != nil {
			out = append(out, Result{Symbol: sym, Err: err})
			continue
		}
		res := s.snapshot(ctx, sym)
		if res.Err != nil {
			s.log.Error("snapshot failed", "symbol", sym, "err", res.Err)
		} else {
			s.log.Info("snapshot recorded", "symbol", sym, "runs", len(res.RunIDs))
		}
		out = append(out, res)
	}
	return out
}

func (s *Scheduler) snapshot(ctx context.Context, sym string) Result {
	res := Result{Symbol: sym}

	series, err := s.Loader.Load(ctx, sym)
	if err != nil {
		res.Err = fmt.Errorf("load: %w", err)
		return res
	}

	var reps []analysis.Report
	for _, m := range volatility.Methods() {
		req := s.Request
		req.Symbol = sym
		req.Method = m

		panels, err := analysis.Panels(series, req)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", m, err)
			return res
		}
		reps = append(reps, panels...)
	}

	for i := range reps {
		id, err := s.Journal.Record(ctx, &reps[i])
		if err != nil {
			res.Err = fmt.Errorf("record: %w", err)
			return res
		}
		res.RunIDs = append(res.RunIDs, id)
	}

	if s.Exporter != nil {
		name := fmt.Sprintf("%s-%s.%s", strings.ToUpper(sym), reps[0].RunID, s.Exporter.Extension())
		if err := report.WriteFile(s.Exporter, filepath.Join(s.OutDir, name), reps); err != nil {
			res.Err = err
		}
	}
	return res
}
