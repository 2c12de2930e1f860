package volatility

import (
	"fmt"
	"math"

	"github.com/rustyeddy/volstat/market"
)

// StdevBands are the mean and the ±1, ±2 and ±3 standard deviation levels
// of a distribution.
type StdevBands struct {
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
	Pos1  float64 `json:"pos1"`
	Neg1  float64 `json:"neg1"`
	Pos2  float64 `json:"pos2"`
	Neg2  float64 `json:"neg2"`
	Pos3  float64 `json:"pos3"`
	Neg3  float64 `json:"neg3"`
}

// Bands computes the stdev bands of values. It needs at least two
// non-NaN values.
func Bands(values []float64) (StdevBands, error) {
	sd := Stdev(values)
	if math.IsNaN(sd) {
		return StdevBands{}, fmt.Errorf("bands need 2 or more values: %w", ErrNoData)
	}
	var n int
	var sum float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	mean := sum / float64(n)

	return StdevBands{
		Mean:  mean,
		Stdev: sd,
		Pos1:  mean + sd,
		Neg1:  mean - sd,
		Pos2:  mean + 2*sd,
		Neg2:  mean - 2*sd,
		Pos3:  mean + 3*sd,
		Neg3:  mean - 3*sd,
	}, nil
}

// Bin is a half-open interval [Lo, Hi) and the number of values in it.
// The last bin of a histogram is closed on the right.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

type Histogram struct {
	Bins  []Bin `json:"bins"`
	Total int   `json:"total"`
}

// NewHistogram bins values into nbins equal-width buckets spanning
// [min, max]. NaN values are ignored.
func NewHistogram(values []float64, nbins int) (Histogram, error) {
	if nbins <= 0 {
		return Histogram{}, fmt.Errorf("nbins must be positive, got %d", nbins)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	var total int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		total++
	}
	if total == 0 {
		return Histogram{}, ErrNoData
	}

	width := (hi - lo) / float64(nbins)
	h := Histogram{Bins: make([]Bin, nbins), Total: total}
	for i := range h.Bins {
		h.Bins[i].Lo = lo + float64(i)*width
		h.Bins[i].Hi = lo + float64(i+1)*width
	}
	h.Bins[nbins-1].Hi = hi

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		idx := nbins - 1
		if width > 0 {
			idx = int((v - lo) / width)
			if idx >= nbins {
				idx = nbins - 1
			}
		}
		h.Bins[idx].Count++
	}
	return h, nil
}

// YearHistogram is the close-price histogram of a single year.
type YearHistogram struct {
	Year      int       `json:"year"`
	Histogram Histogram `json:"histogram"`
}

// HistogramByYear builds one close-price histogram per calendar year.
func HistogramByYear(s market.Series, nbins int) ([]YearHistogram, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var out []YearHistogram
	start := 0
	for i := 1; i <= len(s.Candles); i++ {
		if i < len(s.Candles) && s.Candles[i].Year() == s.Candles[start].Year() {
			continue
		}
		closes := market.NewSeries(s.Symbol, s.Candles[start:i]).Closes()
		h, err := NewHistogram(closes, nbins)
		if err != nil {
			return nil, err
		}
		out = append(out, YearHistogram{Year: s.Candles[start].Year(), Histogram: h})
		start = i
	}
	return out, nil
}

// ScatterPoint pairs a close price with the bar's range in percent.
type ScatterPoint struct {
	Close    float64 `json:"close"`
	RangePct float64 `json:"range_pct"`
}

// RangeScatter returns (close, (high-low)/open*100) for every bar.
func RangeScatter(s market.Series) ([]ScatterPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := make([]ScatterPoint, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = ScatterPoint{Close: c.Close, RangePct: c.Range() * 100}
	}
	return out, nil
}
