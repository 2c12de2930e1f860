package market

import (
	"math"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) bar data for one trading
// period. high >= low is expected but not enforced.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Year is the calendar year the candle opens in.
func (c Candle) Year() int {
	return c.Time.Year()
}

// Range returns (high - low) / open.
func (c Candle) Range() float64 {
	return (c.High - c.Low) / c.Open
}

func (c Candle) finite() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
