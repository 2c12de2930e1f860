package volatility

import (
	"fmt"
	"time"

	"github.com/rustyeddy/volstat/market"
)

// Point is one return value aligned to the timestamp of the bar it came from.
type Point struct {
	Time  time.Time
	Value float64
}

type Points []Point

func (ps Points) Values() []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Value
	}
	return out
}

// Returns converts a price series into a per-bar return series.
//
// Percentage yields close[t]/close[t-1] - 1 and drops the first bar, so the
// result is one shorter than the input. HLO yields (high-low)/open for every
// bar.
func Returns(s market.Series, m Method) (Points, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%v: %w", m, ErrInvalidMethod)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch m {
	case Percentage:
		out := make(Points, 0, len(s.Candles)-1)
		for i := 1; i < len(s.Candles); i++ {
			prev, cur := s.Candles[i-1], s.Candles[i]
			out = append(out, Point{Time: cur.Time, Value: cur.Close/prev.Close - 1})
		}
		return out, nil
	default:
		out := make(Points, len(s.Candles))
		for i, c := range s.Candles {
			out[i] = Point{Time: c.Time, Value: c.Range()}
		}
		return out, nil
	}
}
