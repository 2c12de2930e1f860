package report

import (
	"io"
	"math"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/volstat/analysis"
)

// YearRow is the flat parquet record: one row per report and year.
type YearRow struct {
	RunID     string   `parquet:"run_id"`
	Symbol    string   `parquet:"symbol"`
	Method    string   `parquet:"method"`
	Timeframe string   `parquet:"timeframe"`
	Policy    string   `parquet:"policy"`
	Year      int32    `parquet:"year"`
	Percent   *float64 `parquet:"percent,optional"`
	Removed   bool     `parquet:"removed"`
}

// Rows flattens reps. Undefined years carry a null percent.
func Rows(reps []analysis.Report) []YearRow {
	var out []YearRow
	add := func(r analysis.Report, year int, v float64, removed bool) {
		row := YearRow{
			RunID:     r.RunID,
			Symbol:    r.Symbol,
			Method:    r.Method,
			Timeframe: r.Timeframe,
			Policy:    r.Policy,
			Year:      int32(year),
			Removed:   removed,
		}
		if !math.IsNaN(v) {
			row.Percent = &v
		}
		out = append(out, row)
	}
	for _, r := range reps {
		for _, yv := range r.Volatility {
			add(r, yv.Year, yv.Value, false)
		}
		for _, yv := range r.Removed {
			add(r, yv.Year, yv.Value, true)
		}
	}
	return out
}

type Parquet struct{}

func (Parquet) Extension() string { return "parquet" }

func (Parquet) Export(w io.Writer, reps []analysis.Report) error {
	return parquet.Write(w, Rows(reps))
}
