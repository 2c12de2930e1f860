package volatility

import (
	"fmt"
	"math"
	"sort"
)

// Summary holds min, max and mean rounded to two decimals.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Summarize returns the min, max and mean of values, skipping NaN.
func Summarize(values []float64) (Summary, error) {
	var (
		n      int
		sum    float64
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		n++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n == 0 {
		return Summary{}, ErrNoData
	}
	return Summary{
		Min:  Round2(lo),
		Max:  Round2(hi),
		Mean: Round2(sum / float64(n)),
	}, nil
}

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks. NaN values are ignored.
func Quantile(values []float64, q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, fmt.Errorf("q=%v: %w", q, ErrInvalidQuantile)
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, ErrNoData
	}
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// FilterOutliers splits ys at the q-th quantile. kept holds the years whose
// value is strictly below the threshold; removed holds every other year,
// NaN years included. Both keep the original order.
func FilterOutliers(ys YearSeries, q float64) (kept, removed YearSeries, threshold float64, err error) {
	threshold, err = Quantile(ys.Values(), q)
	if err != nil {
		return nil, nil, 0, err
	}
	for _, yv := range ys {
		if yv.Value < threshold {
			kept = append(kept, yv)
		} else {
			removed = append(removed, yv)
		}
	}
	return kept, removed, threshold, nil
}
