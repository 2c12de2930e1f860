package volatility

import (
	"math"
	"testing"

	"github.com/rustyeddy/volstat/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{0.10, 0.20, 0.30})
	require.NoError(t, err)
	assert.Equal(t, Summary{Min: 0.10, Max: 0.30, Mean: 0.20}, s)

	s, err = Summarize([]float64{1.234, math.NaN(), 5.678})
	require.NoError(t, err)
	assert.Equal(t, Summary{Min: 1.23, Max: 5.68, Mean: 3.46}, s)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Summarize([]float64{math.NaN(), math.NaN()})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSummarizeOrdering(t *testing.T) {
	ys, err := Compute(multiYear(), HLO, Yearly, Propagate)
	require.NoError(t, err)

	s, err := Summarize(ys.Scale(100).Values())
	require.NoError(t, err)
	assert.LessOrEqual(t, s.Min, s.Mean)
	assert.LessOrEqual(t, s.Mean, s.Max)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(1.999))
}

func TestNaNPoliciesDistinguishable(t *testing.T) {
	s := market.NewSeries("X", append(multiYear().Candles, market.Candle{
		Time: day(2023, 1, 1), Open: 100, High: 101, Low: 99, Close: 100,
	}))

	prop, err := Compute(s, HLO, Daily, Propagate)
	require.NoError(t, err)
	dropped, err := Compute(s, HLO, Daily, Drop)
	require.NoError(t, err)
	_, err = Compute(s, HLO, Daily, Raise)
	require.ErrorIs(t, err, ErrUndefinedVolatility)

	assert.Len(t, prop, 5)
	assert.Len(t, dropped, 4)

	// The NaN year never reaches min/max/mean, so both summaries agree.
	ps, err := Summarize(prop.Values())
	require.NoError(t, err)
	ds, err := Summarize(dropped.Values())
	require.NoError(t, err)
	assert.Equal(t, ds, ps)
}

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 2.5},
		{0.99, 3.97},
		{1, 4},
	}
	for _, tt := range tests {
		got, err := Quantile(values, tt.q)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "q=%v", tt.q)
	}

	_, err := Quantile(values, 1.5)
	assert.ErrorIs(t, err, ErrInvalidQuantile)
	_, err = Quantile(values, -0.1)
	assert.ErrorIs(t, err, ErrInvalidQuantile)
	_, err = Quantile([]float64{math.NaN()}, 0.5)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFilterOutliers(t *testing.T) {
	var ys YearSeries
	for i := 0; i < 10; i++ {
		ys = append(ys, YearValue{Year: 2015 + i, Value: float64(i + 1)})
	}
	ys[3].Value = 40 // a black swan year

	kept, removed, threshold, err := FilterOutliers(ys, 0.99)
	require.NoError(t, err)

	q, err := Quantile(ys.Values(), 0.99)
	require.NoError(t, err)
	assert.Equal(t, q, threshold)

	assert.Len(t, kept, 9)
	require.Len(t, removed, 1)
	assert.Equal(t, 2018, removed[0].Year)

	// kept and removed partition the input.
	seen := map[int]int{}
	for _, yv := range kept {
		seen[yv.Year]++
		assert.Less(t, yv.Value, threshold)
	}
	for _, yv := range removed {
		seen[yv.Year]++
		assert.GreaterOrEqual(t, yv.Value, threshold)
	}
	assert.Len(t, seen, len(ys))
	for year, n := range seen {
		assert.Equal(t, 1, n, "year %d", year)
	}
}

func TestFilterOutliersNaNGoesToRemoved(t *testing.T) {
	ys := YearSeries{{2020, 1}, {2021, math.NaN()}, {2022, 2}, {2023, 3}}

	kept, removed, _, err := FilterOutliers(ys, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{2020}, kept.Years())
	assert.Equal(t, []int{2021, 2022, 2023}, removed.Years())
}

func TestBands(t *testing.T) {
	b, err := Bands([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, b.Mean, 1e-12)
	assert.InDelta(t, b.Mean+b.Stdev, b.Pos1, 1e-12)
	assert.InDelta(t, b.Mean-2*b.Stdev, b.Neg2, 1e-12)
	assert.InDelta(t, b.Mean+3*b.Stdev, b.Pos3, 1e-12)

	_, err = Bands([]float64{1})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewHistogram(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	require.NoError(t, err)
	require.Len(t, h.Bins, 5)
	assert.Equal(t, 11, h.Total)

	counts := 0
	for _, b := range h.Bins {
		counts += b.Count
	}
	assert.Equal(t, 11, counts)
	assert.Equal(t, 0.0, h.Bins[0].Lo)
	assert.Equal(t, 10.0, h.Bins[4].Hi)
	assert.Equal(t, 3, h.Bins[4].Count, "8, 9 and the max land in the last bin")

	flat, err := NewHistogram([]float64{5, 5, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, flat.Bins[2].Count)

	_, err = NewHistogram([]float64{1}, 0)
	assert.Error(t, err)
	_, err = NewHistogram(nil, 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestHistogramByYearAndScatter(t *testing.T) {
	s := threeBars()

	hs, err := HistogramByYear(s, 4)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, 2020, hs[0].Year)
	assert.Equal(t, 2, hs[0].Histogram.Total)
	assert.Equal(t, 2021, hs[1].Year)
	assert.Equal(t, 1, hs[1].Histogram.Total)

	pts, err := RangeScatter(s)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, 102.0, pts[0].Close)
	assert.InDelta(t, 6.0, pts[0].RangePct, 1e-9)
}
