package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/volstat/analysis"
)

// CSVHeader is the flat layout: one row per run and year.
var CSVHeader = []string{
	"run_id", "created", "symbol", "method", "timeframe", "policy",
	"year", "percent", "removed", "stat_min", "stat_max", "stat_mean",
}

// CSVJournal appends runs to a flat file for spreadsheet use.
type CSVJournal struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

// NewCSV opens path for appending and writes the header when the file is
// new or empty.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) Record(ctx context.Context, rep *analysis.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runID := ensureRunID(rep)

	j.mu.Lock()
	defer j.mu.Unlock()

	write := func(year int, value float64, removed bool) error {
		return j.w.Write([]string{
			runID,
			rep.Created.UTC().Format(time.RFC3339),
			rep.Symbol,
			rep.Method,
			rep.Timeframe,
			rep.Policy,
			strconv.Itoa(year),
			formatFloat(value),
			strconv.FormatBool(removed),
			formatFloat(rep.Stats.Min),
			formatFloat(rep.Stats.Max),
			formatFloat(rep.Stats.Mean),
		})
	}
	for _, yv := range rep.Volatility {
		if err := write(yv.Year, yv.Value, false); err != nil {
			return "", err
		}
	}
	for _, yv := range rep.Removed {
		if err := write(yv.Year, yv.Value, true); err != nil {
			return "", err
		}
	}
	j.w.Flush()
	return runID, j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	return errors.Join(j.w.Error(), j.f.Close())
}

// ReadCSVRows returns the data rows (header excluded) of a CSV journal.
func ReadCSVRows(r io.Reader) ([][]string, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
