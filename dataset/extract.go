package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rustyeddy/volstat/internal/logx"
	"github.com/rustyeddy/volstat/market"
)

// FileResult reports what happened to one input file.
type FileResult struct {
	Name string
	Rows int
	Err  error
}

// SymbolFromPath uses the file name without its extension as the symbol.
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFile reads one CSV file from disk.
func LoadFile(path string) (market.Series, error) {
	fh, err := os.Open(path)
	if err != nil {
		return market.Series{}, err
	}
	defer fh.Close()

	s, err := ReadCSV(fh, SymbolFromPath(path))
	if err != nil {
		return market.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SaveFile writes the series to path in the normalized layout.
func SaveFile(path string, s market.Series) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(fh, s); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// ExtractTransform normalizes every *.csv in inDir and writes the result to
// outDir under the same name. A bad file is logged and reported in its
// FileResult; the remaining files are still processed.
func ExtractTransform(ctx context.Context, inDir, outDir string, log *slog.Logger) ([]FileResult, error) {
	log = logx.OrDiscard(log)

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	results := make([]FileResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := FileResult{Name: name}
		s, err := LoadFile(filepath.Join(inDir, name))
		if err == nil {
			err = SaveFile(filepath.Join(outDir, name), s)
		}
		if err != nil {
			res.Err = err
			log.Warn("skip file", "file", name, "error", err)
		} else {
			res.Rows = s.Len()
			log.Info("extracted", "file", name, "rows", res.Rows)
		}
		results = append(results, res)
	}
	return results, nil
}
