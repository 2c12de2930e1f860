// Package config holds the state shared by every volstat subcommand and the
// "config" command group.
package config

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/volstat/analysis"
	appconfig "github.com/rustyeddy/volstat/config"
	"github.com/rustyeddy/volstat/dataset"
	"github.com/rustyeddy/volstat/internal/logx"
	"github.com/rustyeddy/volstat/journal"
	"github.com/rustyeddy/volstat/volatility"
)

// RootConfig is filled from the persistent flags and resolved once in the
// root PersistentPreRunE.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	cfg *appconfig.Config
	log *slog.Logger
}

// Init loads the config file and environment, applies the persistent flag
// overrides and builds the logger.
func (rc *RootConfig) Init(cmd *cobra.Command) error {
	cfg, err := appconfig.Load(rc.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = rc.LogLevel
	}
	if flags.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = rc.DBPath
	}

	rc.cfg = cfg
	rc.log = logx.New(cfg.LogLevel, cmd.ErrOrStderr())
	rc.log.Debug("config loaded", "path", rc.ConfigPath, "journal", cfg.Journal.Type)
	return nil
}

// Config returns the resolved configuration, or the defaults before Init.
func (rc *RootConfig) Config() *appconfig.Config {
	if rc.cfg == nil {
		rc.cfg = appconfig.Default()
	}
	return rc.cfg
}

func (rc *RootConfig) Logger() *slog.Logger {
	return logx.OrDiscard(rc.log)
}

// Request builds the analysis defaults from the analysis section.
func (rc *RootConfig) Request() (analysis.Request, error) {
	a := rc.Config().Analysis

	m, err := volatility.ParseMethod(a.Method)
	if err != nil {
		return analysis.Request{}, err
	}
	tf := volatility.Yearly
	if a.Timeframe != "" {
		if tf, err = volatility.ParseTimeframe(a.Timeframe); err != nil {
			return analysis.Request{}, err
		}
	}
	p, err := volatility.ParseNaNPolicy(a.Policy)
	if err != nil {
		return analysis.Request{}, err
	}
	return analysis.Request{
		Method:    m,
		Timeframe: tf,
		Policy:    p,
		StartYear: a.StartYear,
		EndYear:   a.EndYear,
		Filter:    a.Filter,
		Quantile:  a.Quantile,
	}, nil
}

// OpenJournal opens the configured journal.
func (rc *RootConfig) OpenJournal() (journal.Journal, error) {
	j := rc.Config().Journal
	jr, err := journal.Open(j.Type, j.Path())
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", j.Type, err)
	}
	return jr, nil
}

// OpenSQLite opens the SQLite journal for reading past runs.
func (rc *RootConfig) OpenSQLite() (*journal.SQLite, error) {
	j := rc.Config().Journal
	if j.Type != "sqlite" {
		return nil, fmt.Errorf("journal type is %q; listing runs needs sqlite (use --db)", j.Type)
	}
	return journal.NewSQLite(j.DBPath)
}

// Loader maps every configured symbol to its processed CSV file.
func (rc *RootConfig) Loader() *dataset.CSVLoader {
	cfg := rc.Config()
	paths := make(map[string]string, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		paths[s.Name] = cfg.CSVPath(s)
	}
	return dataset.NewCSVLoader(paths)
}

// SymbolNames lists the configured symbols in config order.
func (rc *RootConfig) SymbolNames() []string {
	cfg := rc.Config()
	out := make([]string, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		out[i] = s.Name
	}
	return out
}
