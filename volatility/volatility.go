package volatility

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rustyeddy/volstat/market"
)

const (
	// TradingDaysPerYear is the fixed annualization basis. It ignores the
	// actual number of sessions in any given year.
	TradingDaysPerYear = 252

	// AnnualizationFactor is √TradingDaysPerYear.
	AnnualizationFactor = 15.874507866387544
)

// YearValue is the volatility of a single calendar year.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// YearSeries is ordered by ascending year.
type YearSeries []YearValue

func (ys YearSeries) Values() []float64 {
	out := make([]float64, len(ys))
	for i, yv := range ys {
		out[i] = yv.Value
	}
	return out
}

func (ys YearSeries) Years() []int {
	out := make([]int, len(ys))
	for i, yv := range ys {
		out[i] = yv.Year
	}
	return out
}

// Get returns the value for year and whether the year is present.
func (ys YearSeries) Get(year int) (float64, bool) {
	for _, yv := range ys {
		if yv.Year == year {
			return yv.Value, true
		}
	}
	return 0, false
}

// Scale returns a copy with every value multiplied by k. NaN stays NaN.
func (ys YearSeries) Scale(k float64) YearSeries {
	out := make(YearSeries, len(ys))
	for i, yv := range ys {
		out[i] = YearValue{Year: yv.Year, Value: yv.Value * k}
	}
	return out
}

// Compute groups the returns of s by calendar year and takes the sample
// standard deviation of each year. Yearly scales the result by
// AnnualizationFactor.
//
// Every year present in s gets an entry, including a year whose only bar is
// the first one dropped by Percentage. Years with fewer than two returns are
// undefined and handled according to policy.
func Compute(s market.Series, m Method, tf Timeframe, policy NaNPolicy) (YearSeries, error) {
	if tf != Daily && tf != Yearly {
		return nil, fmt.Errorf("%v: %w", tf, ErrInvalidTimeframe)
	}
	if policy < Propagate || policy > Raise {
		return nil, fmt.Errorf("%v: %w", policy, ErrInvalidPolicy)
	}

	rets, err := Returns(s, m)
	if err != nil {
		return nil, err
	}

	years := s.Years()
	groups := make(map[int][]float64, len(years))
	for _, p := range rets {
		y := p.Time.Year()
		groups[y] = append(groups[y], p.Value)
	}

	out := make(YearSeries, 0, len(years))
	for _, y := range years {
		sd := Stdev(groups[y])
		if tf == Yearly {
			sd *= AnnualizationFactor
		}

		if math.IsNaN(sd) {
			switch policy {
			case Drop:
				continue
			case Raise:
				return nil, fmt.Errorf("year %d has %d return(s): %w", y, len(groups[y]), ErrUndefinedVolatility)
			}
		}
		out = append(out, YearValue{Year: y, Value: sd})
	}
	return out, nil
}

// Stdev is the sample standard deviation (n-1 denominator). NaN inputs are
// skipped; fewer than two remaining values yield NaN.
func Stdev(values []float64) float64 {
	var n int
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

type yearValueJSON struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

// MarshalJSON writes an undefined (NaN) value as null; encoding/json cannot
// represent NaN.
func (yv YearValue) MarshalJSON() ([]byte, error) {
	out := yearValueJSON{Year: yv.Year}
	if !math.IsNaN(yv.Value) && !math.IsInf(yv.Value, 0) {
		v := yv.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (yv *YearValue) UnmarshalJSON(b []byte) error {
	var in yearValueJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	yv.Year = in.Year
	yv.Value = math.NaN()
	if in.Value != nil {
		yv.Value = *in.Value
	}
	return nil
}
