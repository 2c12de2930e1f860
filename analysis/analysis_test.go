package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/volstat/market"
	"github.com/rustyeddy/volstat/volatility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yearlyBars builds n daily bars per year with a deterministic wiggle. The
// 2016 bars swing much harder so it stands out as the black-swan year.
func yearlyBars(from, to, n int) market.Series {
	var candles []market.Candle
	price := 1500.0
	for y := from; y <= to; y++ {
		swing := 0.01
		if y == 2016 {
			swing = 0.08
		}
		for d := 0; d < n; d++ {
			open := price
			if d%2 == 0 {
				price *= 1 + swing
			} else {
				price *= 1 - swing*0.9
			}
			candles = append(candles, market.Candle{
				Time:  time.Date(y, time.January, 2+d, 0, 0, 0, 0, time.UTC),
				Open:  open,
				High:  math.Max(open, price) * 1.002,
				Low:   math.Min(open, price) * 0.998,
				Close: price,
			})
		}
	}
	return market.NewSeries("XAUUSD", candles)
}

func TestRun(t *testing.T) {
	s := yearlyBars(2014, 2020, 10)

	rep, err := Run(s, Request{
		Method:    volatility.Percentage,
		Timeframe: volatility.Daily,
	})
	require.NoError(t, err)

	assert.Equal(t, "XAUUSD", rep.Symbol)
	assert.Equal(t, "PERCENTAGE", rep.Method)
	assert.Equal(t, "DAILY", rep.Timeframe)
	assert.Equal(t, "propagate", rep.Policy)
	assert.Equal(t, 2014, rep.StartYear)
	assert.Equal(t, 2020, rep.EndYear)
	assert.Equal(t, 70, rep.Bars)
	assert.Len(t, rep.Volatility, 7)
	assert.False(t, rep.Filtered)
	assert.Equal(t, s.Last().Close, rep.LastClose)
	require.NotNil(t, rep.Bands)
	assert.Equal(t, "Daily Volatility", rep.Title())

	raw, err := volatility.Compute(s, volatility.Percentage, volatility.Daily, volatility.Propagate)
	require.NoError(t, err)
	assert.InDelta(t, raw[0].Value*100, rep.Volatility[0].Value, 1e-9, "percent scale")

	assert.LessOrEqual(t, rep.Stats.Min, rep.Stats.Mean)
	assert.LessOrEqual(t, rep.Stats.Mean, rep.Stats.Max)
}

func TestRunYearRange(t *testing.T) {
	s := yearlyBars(2014, 2020, 10)

	rep, err := Run(s, Request{
		Method:    volatility.HLO,
		Timeframe: volatility.Yearly,
		StartYear: 2017,
		EndYear:   2019,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2017, 2018, 2019}, rep.Volatility.Years())
	assert.Equal(t, "Annualized Volatility", rep.Title())

	_, err = Run(s, Request{Method: volatility.HLO, Timeframe: volatility.Daily, StartYear: 2019, EndYear: 2017})
	assert.ErrorIs(t, err, market.ErrYearRange)

	_, err = Run(s, Request{Method: volatility.HLO, Timeframe: volatility.Daily, StartYear: 2030})
	assert.ErrorIs(t, err, market.ErrEmpty)
}

func TestRunFilter(t *testing.T) {
	s := yearlyBars(2014, 2020, 10)

	req := DefaultRequest()
	req.Timeframe = volatility.Daily
	req.Filter = true

	rep, err := Run(s, req)
	require.NoError(t, err)

	assert.True(t, rep.Filtered)
	assert.Equal(t, DefaultQuantile, rep.Quantile)
	require.Len(t, rep.Removed, 1)
	assert.Equal(t, 2016, rep.Removed[0].Year)
	assert.Len(t, rep.Volatility, 6)
	assert.GreaterOrEqual(t, rep.Removed[0].Value, rep.Threshold)
	for _, yv := range rep.Volatility {
		assert.Less(t, yv.Value, rep.Threshold)
	}
}

func TestRunFilterUsesGivenQuantile(t *testing.T) {
	s := yearlyBars(2014, 2020, 10)

	req := DefaultRequest()
	req.Filter = true
	req.Quantile = 0.5

	rep, err := Run(s, req)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rep.Quantile)
	assert.Len(t, append(rep.Volatility, rep.Removed...), 7)
	assert.Greater(t, len(rep.Removed), 1)

	// q=0 puts the threshold at the minimum, so every year is removed.
	req.Quantile = 0
	_, err = Run(s, req)
	assert.ErrorIs(t, err, volatility.ErrNoData)
}

func TestDefaultRequest(t *testing.T) {
	req := DefaultRequest()
	assert.Equal(t, volatility.Percentage, req.Method)
	assert.Equal(t, volatility.Yearly, req.Timeframe)
	assert.Equal(t, volatility.Propagate, req.Policy)
	assert.Equal(t, DefaultQuantile, req.Quantile)
	assert.False(t, req.Filter)
}

func TestRunAllUndefined(t *testing.T) {
	s := market.NewSeries("X", []market.Candle{
		{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Open: 100, High: 105, Low: 99, Close: 102},
		{Time: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Open: 102, High: 103, Low: 100, Close: 101},
		{Time: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Open: 101, High: 110, Low: 100, Close: 108},
	})

	_, err := Run(s, Request{Method: volatility.Percentage, Timeframe: volatility.Daily})
	assert.ErrorIs(t, err, volatility.ErrNoData)

	_, err = Run(s, Request{Method: volatility.Percentage, Timeframe: volatility.Daily, Policy: volatility.Raise})
	assert.ErrorIs(t, err, volatility.ErrUndefinedVolatility)
}

func TestPanels(t *testing.T) {
	s := yearlyBars(2018, 2020, 12)

	reps, err := Panels(s, Request{Method: volatility.HLO})
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, "DAILY", reps[0].Timeframe)
	assert.Equal(t, "YEARLY", reps[1].Timeframe)

	for i := range reps[0].Volatility {
		assert.InDelta(t,
			reps[0].Volatility[i].Value*volatility.AnnualizationFactor,
			reps[1].Volatility[i].Value, 1e-9)
	}
}

func TestTables(t *testing.T) {
	rows := Table(volatility.YearSeries{{Year: 2020, Value: 1.234}, {Year: 2021, Value: math.NaN()}})
	assert.Equal(t, []Row{{"2020", "1.23"}, {"2021", "NaN"}}, rows)

	st := StatsTable(volatility.Summary{Min: 0.1, Max: 0.3, Mean: 0.2})
	assert.Equal(t, [2]string{"mean", "0.20"}, st[2])
}

func TestReportJSONWithNaN(t *testing.T) {
	rep := Report{
		Symbol:     "X",
		Volatility: volatility.YearSeries{{Year: 2020, Value: math.NaN()}},
	}
	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"value":null`)
}
