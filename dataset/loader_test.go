package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/volstat/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyBars(year, n int) market.Series {
	candles := make([]market.Candle, n)
	for i := range candles {
		p := 70 + float64(i)
		candles[i] = market.Candle{
			Time:  time.Date(year, time.March, 1+i, 0, 0, 0, 0, time.UTC),
			Open:  p,
			High:  p + 1,
			Low:   p - 1,
			Close: p + 0.5,
		}
	}
	return market.NewSeries("USOIL", candles)
}

func TestCSVLoaderCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oil.csv")
	require.NoError(t, SaveFile(path, dailyBars(2020, 5)))

	l := NewCSVLoader(map[string]string{"usoil": path})
	ctx := context.Background()
	assert.Equal(t, []string{"USOIL"}, l.Symbols())

	s1, err := l.Load(ctx, "usoil")
	require.NoError(t, err)
	assert.Equal(t, "USOIL", s1.Symbol)
	assert.Equal(t, 5, s1.Len())

	require.NoError(t, SaveFile(path, dailyBars(2021, 9)))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	s2, err := l.Load(ctx, "USOIL")
	require.NoError(t, err)
	assert.Equal(t, 9, s2.Len(), "reloaded after modification")

	_, err = l.Load(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestCSVLoaderCanceled(t *testing.T) {
	l := NewCSVLoader(map[string]string{"USOIL": "unused.csv"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, "USOIL")
	assert.ErrorIs(t, err, context.Canceled)
}
