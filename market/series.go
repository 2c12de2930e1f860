package market

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmpty         = errors.New("market: empty series")
	ErrUnsorted      = errors.New("market: candles not in ascending time order")
	ErrDuplicateTime = errors.New("market: duplicate candle timestamp")
	ErrNonFinite     = errors.New("market: non-finite price")
	ErrNonPositive   = errors.New("market: open and close must be positive")
	ErrYearRange     = errors.New("market: start year after end year")
)

const stampLayout = "2006-01-02 15:04:05"

// Series is an ordered run of candles for one symbol. Candles must be sorted
// ascending by time with unique timestamps; Validate enforces that.
type Series struct {
	Symbol  string
	Candles []Candle
}

func NewSeries(symbol string, candles []Candle) Series {
	return Series{Symbol: symbol, Candles: candles}
}

func (s Series) Len() int { return len(s.Candles) }

// Validate checks the shape of the series: non-empty, strictly ascending
// timestamps, finite prices and a positive open and close.
func (s Series) Validate() error {
	if len(s.Candles) == 0 {
		return ErrEmpty
	}
	for i, c := range s.Candles {
		if c.Time.IsZero() {
			return fmt.Errorf("candle %d: missing timestamp: %w", i, ErrUnsorted)
		}
		if !c.finite() {
			return fmt.Errorf("candle %d (%s): %w", i, c.Time.Format(stampLayout), ErrNonFinite)
		}
		if c.Open <= 0 || c.Close <= 0 {
			return fmt.Errorf("candle %d (%s): %w", i, c.Time.Format(stampLayout), ErrNonPositive)
		}
		if i == 0 {
			continue
		}
		prev := s.Candles[i-1].Time
		switch {
		case c.Time.Equal(prev):
			return fmt.Errorf("candle %d (%s): %w", i, c.Time.Format(stampLayout), ErrDuplicateTime)
		case c.Time.Before(prev):
			return fmt.Errorf("candle %d (%s): %w", i, c.Time.Format(stampLayout), ErrUnsorted)
		}
	}
	return nil
}

// Sort orders the candles by time in place. Duplicates are kept.
func (s Series) Sort() {
	sort.SliceStable(s.Candles, func(i, j int) bool {
		return s.Candles[i].Time.Before(s.Candles[j].Time)
	})
}

// Years returns the distinct calendar years in the series, ascending.
// The series is assumed sorted.
func (s Series) Years() []int {
	var years []int
	for _, c := range s.Candles {
		y := c.Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return years
}

// Between keeps the candles whose year lies in [startYear, endYear].
// A zero bound is open.
func (s Series) Between(startYear, endYear int) (Series, error) {
	if startYear != 0 && endYear != 0 && startYear > endYear {
		return Series{}, fmt.Errorf("%d > %d: %w", startYear, endYear, ErrYearRange)
	}
	out := Series{Symbol: s.Symbol}
	for _, c := range s.Candles {
		y := c.Year()
		if startYear != 0 && y < startYear {
			continue
		}
		if endYear != 0 && y > endYear {
			continue
		}
		out.Candles = append(out.Candles, c)
	}
	return out, nil
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Last returns the final candle. The series must not be empty.
func (s Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}
