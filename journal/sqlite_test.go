package journal

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/volstat/analysis"
	"github.com/rustyeddy/volstat/volatility"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func sampleReport(symbol string, created time.Time) analysis.Report {
	return analysis.Report{
		Created:   created,
		Symbol:    symbol,
		Method:    "PERCENTAGE",
		Timeframe: "YEARLY",
		Policy:    "propagate",
		StartYear: 2019,
		EndYear:   2022,
		Bars:      1000,
		Volatility: volatility.YearSeries{
			{Year: 2019, Value: 12.5},
			{Year: 2020, Value: math.NaN()},
			{Year: 2021, Value: 15.25},
		},
		Removed:   volatility.YearSeries{{Year: 2022, Value: 40}},
		Filtered:  true,
		Quantile:  0.99,
		Threshold: 39.1,
		Stats:     volatility.Summary{Min: 12.5, Max: 15.25, Mean: 13.88},
		LastClose: 2040.5,
		Bands:     &volatility.StdevBands{Mean: 1800, Stdev: 100},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','run_years')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["run_years"])
}

func TestSQLiteRecordAndGet(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	rep := sampleReport("XAUUSD", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	runID, err := j.Record(ctx, &rep)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	assert.Equal(t, runID, rep.RunID)

	got, err := j.GetRun(ctx, runID)
	require.NoError(t, err)

	assert.Equal(t, runID, got.RunID)
	assert.True(t, got.Created.Equal(rep.Created))
	assert.Equal(t, "XAUUSD", got.Symbol)
	assert.Equal(t, "PERCENTAGE", got.Method)
	assert.Equal(t, "YEARLY", got.Timeframe)
	assert.Equal(t, 2019, got.StartYear)
	assert.Equal(t, 1000, got.Bars)
	assert.True(t, got.Filtered)
	assert.InDelta(t, 0.99, got.Quantile, 1e-12)
	assert.Equal(t, rep.Stats, got.Stats)

	require.Equal(t, []int{2019, 2020, 2021}, got.Volatility.Years())
	assert.Equal(t, 12.5, got.Volatility[0].Value)
	assert.True(t, math.IsNaN(got.Volatility[1].Value))
	require.Len(t, got.Removed, 1)
	assert.Equal(t, 40.0, got.Removed[0].Value)

	require.NotNil(t, got.Bands)
	assert.InDelta(t, 2100.0, got.Bands.Pos3, 1e-9)
	assert.InDelta(t, 1700.0, got.Bands.Neg1, 1e-9)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	_, err := j.GetRun(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, sym := range []string{"XAUUSD", "USOIL", "XAUUSD"} {
		rep := sampleReport(sym, base.Add(time.Duration(i)*time.Hour))
		rep.Bands = nil
		_, err := j.Record(ctx, &rep)
		require.NoError(t, err)
	}

	all, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Created.After(all[1].Created), "newest first")
	assert.Nil(t, all[0].Bands)
	assert.Empty(t, all[0].Volatility, "headers only")

	gold, err := j.ListRuns(ctx, "XAUUSD", 0)
	require.NoError(t, err)
	assert.Len(t, gold, 2)

	one, err := j.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, all[0].RunID, one[0].RunID)
}

func TestSQLiteDuplicateRunID(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	rep := sampleReport("XAUUSD", time.Now().UTC())
	_, err := j.Record(ctx, &rep)
	require.NoError(t, err)

	_, err = j.Record(ctx, &rep)
	assert.Error(t, err)

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed insert rolled back")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	j, err := Open("sqlite", filepath.Join(dir, "j.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open("csv", filepath.Join(dir, "j.csv"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = Open("mongo", "x")
	assert.Error(t, err)
}
