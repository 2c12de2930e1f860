// Package dataset reads and normalizes OHLC CSV exports.
//
// The reader understands TradingView "Export chart data" files as well as the
// normalized format written by WriteCSV. Column names are matched after
// lowercasing and replacing spaces with underscores, so "Close" and "close"
// are the same column and "Volume MA" becomes "volume_ma".
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/volstat/market"
)

var ErrMissingColumn = errors.New("dataset: missing required column")

// Header is the column order written by WriteCSV.
var Header = []string{"time", "open", "high", "low", "close", "volume"}

// offsetLayouts carry a zone offset; the parsed offset is kept so a bar stays
// in the calendar year it was stamped with.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// naiveLayouts carry no offset and are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeColumn lowercases a column name and replaces spaces with
// underscores.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ParseTime accepts RFC3339, the common date/datetime layouts and unix
// seconds. A timestamp with an offset keeps it; unix seconds and layouts
// without an offset are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ReadCSV parses an OHLC CSV into a validated, ascending series.
func ReadCSV(r io.Reader, symbol string) (market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return market.Series{}, market.ErrEmpty
		}
		return market.Series{}, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, req := range Header[:5] {
		if _, ok := cols[req]; !ok {
			return market.Series{}, fmt.Errorf("%q: %w", req, ErrMissingColumn)
		}
	}
	volIdx, hasVol := cols["volume"]

	var candles []market.Candle
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return market.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		c, err := parseRow(rec, cols)
		if err != nil {
			return market.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		if hasVol && volIdx < len(rec) && strings.TrimSpace(rec[volIdx]) != "" {
			if c.Volume, err = parseFloat(rec[volIdx]); err != nil {
				return market.Series{}, fmt.Errorf("line %d: volume: %w", line, err)
			}
		}
		candles = append(candles, c)
	}

	s := market.NewSeries(symbol, candles)
	s.Sort()
	if err := s.Validate(); err != nil {
		return market.Series{}, err
	}
	return s, nil
}

func parseRow(rec []string, cols map[string]int) (market.Candle, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(rec) {
			return "", fmt.Errorf("%s: short row", name)
		}
		return rec[i], nil
	}

	var c market.Candle
	ts, err := field("time")
	if err != nil {
		return c, err
	}
	if c.Time, err = ParseTime(ts); err != nil {
		return c, err
	}

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"open", &c.Open},
		{"high", &c.High},
		{"low", &c.Low},
		{"close", &c.Close},
	} {
		raw, err := field(p.name)
		if err != nil {
			return c, err
		}
		if *p.dst, err = parseFloat(raw); err != nil {
			return c, fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return c, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// WriteCSV writes the series in the normalized column layout.
func WriteCSV(w io.Writer, s market.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range s.Candles {
		err := cw.Write([]string{
			c.Time.Format(time.RFC3339),
			f(c.Open),
			f(c.High),
			f(c.Low),
			f(c.Close),
			f(c.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
