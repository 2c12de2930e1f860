package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/volstat/market"
)

var ErrUnknownSymbol = errors.New("dataset: unknown symbol")

type cachedSeries struct {
	series  market.Series
	modTime time.Time
}

// CSVLoader serves one processed CSV file per symbol. A parsed series is
// reused until the file's modification time changes.
type CSVLoader struct {
	paths map[string]string

	mu    sync.RWMutex
	cache map[string]cachedSeries
}

// NewCSVLoader maps symbol names (case-insensitive) to CSV paths.
func NewCSVLoader(paths map[string]string) *CSVLoader {
	l := &CSVLoader{
		paths: make(map[string]string, len(paths)),
		cache: make(map[string]cachedSeries),
	}
	for sym, p := range paths {
		l.paths[strings.ToUpper(sym)] = p
	}
	return l
}

// Symbols lists the known symbols, sorted.
func (l *CSVLoader) Symbols() []string {
	out := make([]string, 0, len(l.paths))
	for sym := range l.paths {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (l *CSVLoader) Load(ctx context.Context, symbol string) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return market.Series{}, err
	}
	sym := strings.ToUpper(symbol)
	path, ok := l.paths[sym]
	if !ok {
		return market.Series{}, fmt.Errorf("%q: %w", symbol, ErrUnknownSymbol)
	}

	st, err := os.Stat(path)
	if err != nil {
		return market.Series{}, err
	}

	l.mu.RLock()
	c, ok := l.cache[sym]
	l.mu.RUnlock()
	if ok && c.modTime.Equal(st.ModTime()) {
		return c.series, nil
	}

	s, err := LoadFile(path)
	if err != nil {
		return market.Series{}, err
	}
	s.Symbol = sym

	l.mu.Lock()
	l.cache[sym] = cachedSeries{series: s, modTime: st.ModTime()}
	l.mu.Unlock()
	return s, nil
}
