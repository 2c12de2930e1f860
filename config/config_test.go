package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "percentage", cfg.Analysis.Method)
	assert.Equal(t, "propagate", cfg.Analysis.Policy)
	assert.Equal(t, 0.99, cfg.Analysis.Quantile)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Len(t, cfg.Symbols, 3)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing raw dir",
			mutate:  func(c *Config) { c.Data.RawDir = "" },
			wantErr: true,
			errMsg:  "data.raw_dir is required",
		},
		{
			name:    "unknown method",
			mutate:  func(c *Config) { c.Analysis.Method = "garch" },
			wantErr: true,
			errMsg:  "analysis.method",
		},
		{
			name:   "hlo method",
			mutate: func(c *Config) { c.Analysis.Method = "HLO" },
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Analysis.Policy = "ignore" },
			wantErr: true,
			errMsg:  "analysis.policy",
		},
		{
			name:    "bad timeframe",
			mutate:  func(c *Config) { c.Analysis.Timeframe = "weekly" },
			wantErr: true,
			errMsg:  "analysis.timeframe",
		},
		{
			name:    "quantile above one",
			mutate:  func(c *Config) { c.Analysis.Quantile = 1.5 },
			wantErr: true,
			errMsg:  "analysis.quantile must be <= 1",
		},
		{
			name: "inverted years",
			mutate: func(c *Config) {
				c.Analysis.StartYear = 2022
				c.Analysis.EndYear = 2020
			},
			wantErr: true,
			errMsg:  "analysis.start_year must not be after analysis.end_year",
		},
		{
			name:    "unnamed symbol",
			mutate:  func(c *Config) { c.Symbols = append(c.Symbols, SymbolConfig{CSV: "x.csv"}) },
			wantErr: true,
			errMsg:  "symbols[3].name is required",
		},
		{
			name:    "duplicate symbol",
			mutate:  func(c *Config) { c.Symbols = append(c.Symbols, SymbolConfig{Name: "xauusd"}) },
			wantErr: true,
			errMsg:  "duplicate symbol: xauusd",
		},
		{
			name:    "bad oanda env",
			mutate:  func(c *Config) { c.Oanda.Env = "sandbox" },
			wantErr: true,
			errMsg:  "oanda.env must be one of [practice live]",
		},
		{
			name:    "oanda count too large",
			mutate:  func(c *Config) { c.Oanda.Count = 6000 },
			wantErr: true,
			errMsg:  "oanda.count must be <= 5000",
		},
		{
			name:    "invalid journal type",
			mutate:  func(c *Config) { c.Journal.Type = "mongo" },
			wantErr: true,
			errMsg:  "journal.type must be one of [csv sqlite]",
		},
		{
			name:    "sqlite without db path",
			mutate:  func(c *Config) { c.Journal.DBPath = "" },
			wantErr: true,
			errMsg:  "journal.db_path is required when Type sqlite",
		},
		{
			name: "csv without csv path",
			mutate: func(c *Config) {
				c.Journal.Type = "csv"
			},
			wantErr: true,
			errMsg:  "journal.csv_path is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
			errMsg:  "log_level must be one of",
		},
		{
			name:    "export format without out dir",
			mutate:  func(c *Config) { c.Schedule.Format = "xlsx" },
			wantErr: true,
			errMsg:  "schedule.out_dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
log_level: debug
data:
  raw_dir: raw
  processed_dir: processed
analysis:
  method: hlo
  policy: drop
  filter: true
  quantile: 0.95
  bins: 20
symbols:
  - name: XAUUSD
    instrument: XAU_USD
    csv: gold.csv
oanda:
  env: live
  granularity: H1
  price: M
  count: 100
journal:
  type: csv
  csv_path: runs.csv
server:
  addr: ":9090"
  read_timeout: 5s
schedule:
  cron: "0 */5 * * * *"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "hlo", cfg.Analysis.Method)
	assert.Equal(t, "drop", cfg.Analysis.Policy)
	assert.True(t, cfg.Analysis.Filter)
	assert.Equal(t, 0.95, cfg.Analysis.Quantile)
	require.Len(t, cfg.Symbols, 1)
	assert.Equal(t, "gold.csv", cfg.CSVPath(cfg.Symbols[0]))
	assert.Equal(t, "live", cfg.Oanda.Env)
	assert.Equal(t, "runs.csv", cfg.Journal.Path())
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
}

func TestLoadFromFileJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{"analysis": {"method": "percentage", "policy": "raise", "quantile": 0.9, "bins": 10}, "journal": {"type": "sqlite", "db_path": "x.db"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(jsonContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "raise", cfg.Analysis.Policy)
	assert.Equal(t, "x.db", cfg.Journal.DBPath)
}

func TestLoadFromFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")

	bad := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("analysis: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("journal:\n  type: mongo\n"), 0644))
	_, err = LoadFromFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOLSTAT_LOG_LEVEL", "warn")
	t.Setenv("VOLSTAT_OANDA_TOKEN", "secret")
	t.Setenv("VOLSTAT_ANALYSIS_QUANTILE", "0.9")
	t.Setenv("VOLSTAT_SERVER_ADDR", ":7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "secret", cfg.Oanda.Token)
	assert.Equal(t, 0.9, cfg.Analysis.Quantile)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "data/raw", cfg.Data.RawDir, "untouched by env")
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("VOLSTAT_ANALYSIS_BINS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config from env")
}

func TestSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)
			cfg := Default()
			cfg.Analysis.Method = "hlo"

			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestSymbolLookup(t *testing.T) {
	cfg := Default()

	s, ok := cfg.Symbol("usoil")
	require.True(t, ok)
	assert.Equal(t, "WTICO_USD", s.Instrument)
	assert.Equal(t, filepath.Join("data/processed", "USOIL.csv"), cfg.CSVPath(s))

	_, ok = cfg.Symbol("EURUSD")
	assert.False(t, ok)
}
