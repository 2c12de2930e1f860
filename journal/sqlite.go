package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/volatility"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Record writes the run header and one row per year (kept and removed) in a
// single transaction.
func (j *SQLite) Record(ctx context.Context, rep *analysis.Report) (string, error) {
	runID := ensureRunID(rep)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var closeMean, closeStdev sql.NullFloat64
	if rep.Bands != nil {
		closeMean = sql.NullFloat64{Float64: rep.Bands.Mean, Valid: true}
		closeStdev = sql.NullFloat64{Float64: rep.Bands.Stdev, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, symbol, method, timeframe, policy, start_year, end_year, bars,
		 filtered, quantile, threshold, stat_min, stat_max, stat_mean, last_close, close_mean, close_stdev)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rep.Created, rep.Symbol, rep.Method, rep.Timeframe, rep.Policy,
		rep.StartYear, rep.EndYear, rep.Bars,
		rep.Filtered, rep.Quantile, rep.Threshold,
		rep.Stats.Min, rep.Stats.Max, rep.Stats.Mean, rep.LastClose, closeMean, closeStdev,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_years (run_id, year, value, removed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, set := range []struct {
		ys      volatility.YearSeries
		removed bool
	}{
		{rep.Volatility, false},
		{rep.Removed, true},
	} {
		for _, yv := range set.ys {
			if _, err := stmt.ExecContext(ctx, runID, yv.Year, nullable(yv.Value), set.removed); err != nil {
				return "", fmt.Errorf("insert year %d: %w", yv.Year, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

const runColumns = `run_id, created, symbol, method, timeframe, policy, start_year, end_year, bars,
	filtered, quantile, threshold, stat_min, stat_max, stat_mean, last_close, close_mean, close_stdev`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (analysis.Report, error) {
	var (
		rep                   analysis.Report
		closeMean, closeStdev sql.NullFloat64
	)
	err := row.Scan(
		&rep.RunID, &rep.Created, &rep.Symbol, &rep.Method, &rep.Timeframe, &rep.Policy,
		&rep.StartYear, &rep.EndYear, &rep.Bars,
		&rep.Filtered, &rep.Quantile, &rep.Threshold,
		&rep.Stats.Min, &rep.Stats.Max, &rep.Stats.Mean, &rep.LastClose, &closeMean, &closeStdev,
	)
	if err != nil {
		return analysis.Report{}, err
	}
	if closeMean.Valid && closeStdev.Valid {
		m, sd := closeMean.Float64, closeStdev.Float64
		rep.Bands = &volatility.StdevBands{
			Mean: m, Stdev: sd,
			Pos1: m + sd, Neg1: m - sd,
			Pos2: m + 2*sd, Neg2: m - 2*sd,
			Pos3: m + 3*sd, Neg3: m - 3*sd,
		}
	}
	return rep, nil
}

// GetRun loads a run and its per-year values.
func (j *SQLite) GetRun(ctx context.Context, runID string) (analysis.Report, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rep, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return analysis.Report{}, fmt.Errorf("%q: %w", runID, ErrNotFound)
		}
		return analysis.Report{}, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT year, value, removed FROM run_years
		WHERE run_id = ?
		ORDER BY year ASC`, runID)
	if err != nil {
		return analysis.Report{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			yv      volatility.YearValue
			value   sql.NullFloat64
			removed bool
		)
		if err := rows.Scan(&yv.Year, &value, &removed); err != nil {
			return analysis.Report{}, err
		}
		yv.Value = math.NaN()
		if value.Valid {
			yv.Value = value.Float64
		}
		if removed {
			rep.Removed = append(rep.Removed, yv)
		} else {
			rep.Volatility = append(rep.Volatility, yv)
		}
	}
	if err := rows.Err(); err != nil {
		return analysis.Report{}, err
	}
	return rep, nil
}

// ListRuns returns run headers, newest first. An empty symbol lists every
// symbol; limit <= 0 means no limit. Per-year values are not loaded.
func (j *SQLite) ListRuns(ctx context.Context, symbol string, limit int) ([]analysis.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE (? = '' OR symbol = ?)
		ORDER BY created DESC, run_id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.Report
	for rows.Next() {
		rep, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
