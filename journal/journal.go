// Package journal persists analysis runs so past volatility snapshots can be
// listed and compared.
package journal

import (
	"context"
	"errors"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/pkg/id"
)

var ErrNotFound = errors.New("journal: run not found")

// Journal records analysis reports.
type Journal interface {
	// Record stores rep and returns its run ID. A report without a RunID is
	// given one.
	Record(ctx context.Context, rep *analysis.Report) (string, error)
	Close() error
}

// Open returns the journal for kind ("sqlite" or "csv").
func Open(kind, path string) (Journal, error) {
	switch kind {
	case "sqlite":
		return NewSQLite(path)
	case "csv":
		return NewCSV(path)
	default:
		return nil, errors.New("journal: type must be 'csv' or 'sqlite'")
	}
}

func ensureRunID(rep *analysis.Report) string {
	if rep.RunID == "" {
		rep.RunID = id.At(rep.Created)
	}
	return rep.RunID
}
