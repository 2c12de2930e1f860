// Package server exposes the volatility dashboard as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/internal/logx"
	"github.com/rustyeddy/volstat/market"
	"github.com/rustyeddy/volstat/volatility"
)

// Loader supplies the price series behind each dashboard symbol.
type Loader interface {
	Symbols() []string
	Load(ctx context.Context, symbol string) (market.Series, error)
}

// Options are the defaults applied when a query parameter is absent.
type Options struct {
	Defaults analysis.Request
	Bins     int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	loader  Loader
	opts    Options
	log     *slog.Logger
	metrics *Metrics
	router  chi.Router
}

func New(loader Loader, opts Options, log *slog.Logger) *Server {
	if opts.Bins <= 0 {
		opts.Bins = 50
	}
	if opts.Defaults == (analysis.Request{}) {
		opts.Defaults = analysis.DefaultRequest()
	}
	if opts.Defaults.Method == 0 {
		opts.Defaults.Method = volatility.Percentage
	}
	if opts.Defaults.Timeframe == 0 {
		opts.Defaults.Timeframe = volatility.Yearly
	}

	s := &Server{
		loader:  loader,
		opts:    opts,
		log:     logx.OrDiscard(log).With(slog.String("component", "server")),
		metrics: NewMetrics(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/symbols", s.symbols)
		r.Get("/volatility/{symbol}", s.volatility)
		r.Get("/panels/{symbol}", s.panels)
		r.Get("/distribution/{symbol}", s.distribution)
		r.Get("/scatter/{symbol}", s.scatter)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errFor(err)
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
		)
	}
	render.Render(w, r, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// SymbolInfo describes one dashboard symbol.
type SymbolInfo struct {
	Name       string `json:"name"`
	Exchange   string `json:"exchange,omitempty"`
	Instrument string `json:"instrument,omitempty"`
}

func (s *Server) symbols(w http.ResponseWriter, r *http.Request) {
	names := s.loader.Symbols()
	out := make([]SymbolInfo, 0, len(names))
	for _, n := range names {
		info := SymbolInfo{Name: n}
		if meta, ok := market.LookupSymbol(n); ok {
			info.Exchange = meta.Exchange
			info.Instrument = meta.Instrument
		}
		out = append(out, info)
	}
	render.JSON(w, r, out)
}

// request builds an analysis request from the query string over the
// server defaults.
func (s *Server) request(r *http.Request) (analysis.Request, error) {
	req := s.opts.Defaults
	req.Symbol = chi.URLParam(r, "symbol")
	q := r.URL.Query()

	var err error
	if v := q.Get("method"); v != "" {
		if req.Method, err = volatility.ParseMethod(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("timeframe"); v != "" {
		if req.Timeframe, err = volatility.ParseTimeframe(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("policy"); v != "" {
		if req.Policy, err = volatility.ParseNaNPolicy(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("start"); v != "" {
		if req.StartYear, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("start: %w", err)
		}
	}
	if v := q.Get("end"); v != "" {
		if req.EndYear, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("end: %w", err)
		}
	}
	if v := q.Get("filter"); v != "" {
		if req.Filter, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("filter: %w", err)
		}
	}
	if v := q.Get("q"); v != "" {
		if req.Quantile, err = strconv.ParseFloat(v, 64); err != nil {
			return req, fmt.Errorf("q: %w", err)
		}
		if req.Quantile < 0 || req.Quantile > 1 {
			return req, fmt.Errorf("q=%v: %w", req.Quantile, volatility.ErrInvalidQuantile)
		}
	}
	return req, nil
}

func (s *Server) load(r *http.Request, symbol string) (market.Series, error) {
	return s.loader.Load(r.Context(), symbol)
}

func (s *Server) volatility(w http.ResponseWriter, r *http.Request) {
	req, err := s.request(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	series, err := s.load(r, req.Symbol)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start := time.Now()
	rep, err := analysis.Run(series, req)
	s.metrics.ObserveAnalysis(start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, rep)
}

func (s *Server) panels(w http.ResponseWriter, r *http.Request) {
	req, err := s.request(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	series, err := s.load(r, req.Symbol)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start := time.Now()
	reps, err := analysis.Panels(series, req)
	s.metrics.ObserveAnalysis(start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, reps)
}

// Distribution is the close-price view: overall histogram, stdev bands and
// one histogram per year.
type Distribution struct {
	Symbol    string                     `json:"symbol"`
	LastClose float64                    `json:"last_close"`
	Histogram volatility.Histogram       `json:"histogram"`
	Bands     volatility.StdevBands      `json:"bands"`
	ByYear    []volatility.YearHistogram `json:"by_year"`
}

func (s *Server) distribution(w http.ResponseWriter, r *http.Request) {
	bins := s.opts.Bins
	if v := r.URL.Query().Get("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			render.Render(w, r, errInvalid(fmt.Errorf("bins=%q: must be a positive integer", v)))
			return
		}
		bins = n
	}

	series, err := s.load(r, chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	closes := series.Closes()
	d := Distribution{Symbol: series.Symbol, LastClose: series.Last().Close}
	if d.Histogram, err = volatility.NewHistogram(closes, bins); err != nil {
		s.fail(w, r, err)
		return
	}
	if d.Bands, err = volatility.Bands(closes); err != nil {
		s.fail(w, r, err)
		return
	}
	if d.ByYear, err = volatility.HistogramByYear(series, bins); err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, d)
}

func (s *Server) scatter(w http.ResponseWriter, r *http.Request) {
	series, err := s.load(r, chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pts, err := volatility.RangeScatter(series)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, pts)
}
