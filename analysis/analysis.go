// Package analysis assembles a volatility Report from a price series: year
// filtering, volatility per year in percent, optional outlier removal and the
// summary statistics shown next to each table.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/volstat/market"
	"github.com/rustyeddy/volstat/volatility"
)

// DefaultQuantile is the dashboard's black-swan cut.
const DefaultQuantile = 0.99

// Request describes one analysis. Zero StartYear/EndYear leave the range open.
// Quantile is used as given when Filter is set; start from DefaultRequest to
// get the dashboard's cut.
type Request struct {
	Symbol    string
	Method    volatility.Method
	Timeframe volatility.Timeframe
	Policy    volatility.NaNPolicy
	StartYear int
	EndYear   int
	Filter    bool
	Quantile  float64
}

// Report is the plain result handed to the table, file, HTTP and journal
// sinks. Volatility and Removed are in percent.
type Report struct {
	RunID     string    `json:"run_id,omitempty"`
	Created   time.Time `json:"created"`
	Symbol    string    `json:"symbol"`
	Method    string    `json:"method"`
	Timeframe string    `json:"timeframe"`
	Policy    string    `json:"policy"`
	StartYear int       `json:"start_year"`
	EndYear   int       `json:"end_year"`
	Bars      int       `json:"bars"`

	Volatility volatility.YearSeries `json:"volatility"`
	Removed    volatility.YearSeries `json:"removed,omitempty"`
	Filtered   bool                  `json:"filtered"`
	Quantile   float64               `json:"quantile,omitempty"`
	Threshold  float64               `json:"threshold,omitempty"`

	Stats     volatility.Summary     `json:"stats"`
	LastClose float64                `json:"last_close"`
	Bands     *volatility.StdevBands `json:"bands,omitempty"`
}

// Title is the heading the dashboard shows above the table.
func (r Report) Title() string {
	if r.Timeframe == volatility.Daily.String() {
		return volatility.Daily.Title()
	}
	return volatility.Yearly.Title()
}

// DefaultRequest is the dashboard's initial selection: PERCENTAGE, YEARLY,
// NaN years propagated, filtering off at DefaultQuantile.
func DefaultRequest() Request {
	return Request{
		Method:    volatility.Percentage,
		Timeframe: volatility.Yearly,
		Policy:    volatility.Propagate,
		Quantile:  DefaultQuantile,
	}
}

// Run executes req against s.
func Run(s market.Series, req Request) (Report, error) {
	q := req.Quantile

	s, err := s.Between(req.StartYear, req.EndYear)
	if err != nil {
		return Report{}, err
	}
	if req.Symbol == "" {
		req.Symbol = s.Symbol
	}

	ys, err := volatility.Compute(s, req.Method, req.Timeframe, req.Policy)
	if err != nil {
		return Report{}, err
	}
	ys = ys.Scale(100)

	rep := Report{
		Created:    time.Now().UTC(),
		Symbol:     req.Symbol,
		Method:     req.Method.String(),
		Timeframe:  req.Timeframe.String(),
		Policy:     req.Policy.String(),
		StartYear:  s.Candles[0].Year(),
		EndYear:    s.Last().Year(),
		Bars:       s.Len(),
		Volatility: ys,
		LastClose:  s.Last().Close,
	}

	if req.Filter {
		kept, removed, threshold, err := volatility.FilterOutliers(ys, q)
		if err != nil {
			return Report{}, fmt.Errorf("filter outliers: %w", err)
		}
		rep.Volatility = kept
		rep.Removed = removed
		rep.Filtered = true
		rep.Quantile = q
		rep.Threshold = threshold
	}

	rep.Stats, err = volatility.Summarize(rep.Volatility.Values())
	if err != nil {
		return Report{}, fmt.Errorf("%s %s: %w", rep.Symbol, rep.Timeframe, err)
	}

	b, err := volatility.Bands(s.Closes())
	switch {
	case err == nil:
		rep.Bands = &b
	case !errors.Is(err, volatility.ErrNoData):
		return Report{}, err
	}
	return rep, nil
}

// Panels runs req once per timeframe, daily first, the way the dashboard
// shows the two tables side by side. req.Timeframe is ignored.
func Panels(s market.Series, req Request) ([]Report, error) {
	out := make([]Report, 0, 2)
	for _, tf := range []volatility.Timeframe{volatility.Daily, volatility.Yearly} {
		req.Timeframe = tf
		rep, err := Run(s, req)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

// Row is one formatted line of a year table.
type Row struct {
	Year    string `json:"year"`
	Percent string `json:"percent"`
}

// Table formats a year series as "%.2f" rows keyed by year.
func Table(ys volatility.YearSeries) []Row {
	out := make([]Row, len(ys))
	for i, yv := range ys {
		out[i] = Row{Year: fmt.Sprint(yv.Year), Percent: fmt.Sprintf("%.2f", yv.Value)}
	}
	return out
}

// StatsTable formats the summary as min/max/mean rows.
func StatsTable(s volatility.Summary) [][2]string {
	return [][2]string{
		{"min", fmt.Sprintf("%.2f", s.Min)},
		{"max", fmt.Sprintf("%.2f", s.Max)},
		{"mean", fmt.Sprintf("%.2f", s.Mean)},
	}
}
