// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	method TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	policy TEXT NOT NULL,
	start_year INTEGER NOT NULL,
	end_year INTEGER NOT NULL,
	bars INTEGER NOT NULL,
	filtered INTEGER NOT NULL,
	quantile REAL NOT NULL,
	threshold REAL NOT NULL,
	stat_min REAL NOT NULL,
	stat_max REAL NOT NULL,
	stat_mean REAL NOT NULL,
	last_close REAL NOT NULL,
	close_mean REAL,
	close_stdev REAL
);

CREATE TABLE IF NOT EXISTS run_years (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	year INTEGER NOT NULL,
	value REAL,
	removed INTEGER NOT NULL,
	PRIMARY KEY (run_id, year)
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol_created ON runs(symbol, created);
`
