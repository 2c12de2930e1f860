// Package config loads the volstat configuration: a YAML (or JSON) file,
// overridden by VOLSTAT_* environment variables, then validated.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/volstat/volatility"
)

// EnvPrefix is the environment variable prefix, e.g. VOLSTAT_OANDA_TOKEN.
const EnvPrefix = "VOLSTAT"

// Config represents the complete volstat configuration
type Config struct {
	LogLevel string         `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Data     DataConfig     `json:"data" yaml:"data" envconfig:"DATA"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" envconfig:"ANALYSIS"`
	Symbols  []SymbolConfig `json:"symbols" yaml:"symbols" ignored:"true" validate:"dive"`
	Oanda    OandaConfig    `json:"oanda" yaml:"oanda" envconfig:"OANDA"`
	Journal  JournalConfig  `json:"journal" yaml:"journal" envconfig:"JOURNAL"`
	Server   ServerConfig   `json:"server" yaml:"server" envconfig:"SERVER"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule" envconfig:"SCHEDULE"`
}

// DataConfig locates the CSV files
type DataConfig struct {
	RawDir       string `json:"raw_dir" yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
}

// AnalysisConfig holds the defaults applied to every analysis request
type AnalysisConfig struct {
	Method    string  `json:"method" yaml:"method" envconfig:"METHOD" validate:"method"`
	Timeframe string  `json:"timeframe,omitempty" yaml:"timeframe,omitempty" envconfig:"TIMEFRAME" validate:"omitempty,timeframe"`
	Policy    string  `json:"policy" yaml:"policy" envconfig:"POLICY" validate:"nanpolicy"`
	StartYear int     `json:"start_year,omitempty" yaml:"start_year,omitempty" envconfig:"START_YEAR" validate:"gte=0"`
	EndYear   int     `json:"end_year,omitempty" yaml:"end_year,omitempty" envconfig:"END_YEAR" validate:"gte=0"`
	Filter    bool    `json:"filter" yaml:"filter" envconfig:"FILTER"`
	Quantile  float64 `json:"quantile" yaml:"quantile" envconfig:"QUANTILE" validate:"gte=0,lte=1"`
	Bins      int     `json:"bins" yaml:"bins" envconfig:"BINS" validate:"gte=1,lte=1000"`
}

// SymbolConfig is one dashboard symbol and where its bars come from
type SymbolConfig struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Exchange   string `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	Instrument string `json:"instrument,omitempty" yaml:"instrument,omitempty"`
	CSV        string `json:"csv,omitempty" yaml:"csv,omitempty"`
}

// OandaConfig contains fetch parameters
type OandaConfig struct {
	Env         string `json:"env" yaml:"env" envconfig:"ENV" validate:"oneof=practice live"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty" envconfig:"TOKEN"`
	Granularity string `json:"granularity" yaml:"granularity" envconfig:"GRANULARITY" validate:"required"`
	Price       string `json:"price" yaml:"price" envconfig:"PRICE" validate:"oneof=M B A"`
	Count       int    `json:"count" yaml:"count" envconfig:"COUNT" validate:"gte=1,lte=5000"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type    string `json:"type" yaml:"type" envconfig:"TYPE" validate:"oneof=csv sqlite"` // "csv" or "sqlite"
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty" envconfig:"DB_PATH" validate:"required_if=Type sqlite"`
	CSVPath string `json:"csv_path,omitempty" yaml:"csv_path,omitempty" envconfig:"CSV_PATH" validate:"required_if=Type csv"`
}

// Path returns the file the configured journal writes to.
func (j JournalConfig) Path() string {
	if j.Type == "csv" {
		return j.CSVPath
	}
	return j.DBPath
}

type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// ScheduleConfig drives the periodic snapshots of the watch command
type ScheduleConfig struct {
	Cron   string `json:"cron" yaml:"cron" envconfig:"CRON" validate:"required"` // with seconds field
	Format string `json:"format,omitempty" yaml:"format,omitempty" envconfig:"FORMAT" validate:"omitempty,oneof=text org xlsx parquet json"`
	OutDir string `json:"out_dir,omitempty" yaml:"out_dir,omitempty" envconfig:"OUT_DIR" validate:"required_with=Format"`
}

// Load returns the defaults, overlaid with path (when not empty) and then
// the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON) over the
// defaults. The environment is not consulted.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, c); err != nil {
		if jerr := json.Unmarshal(data, c); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON
// otherwise)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report yaml names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "method", func(s string) error { _, err := volatility.ParseMethod(s); return err })
	mustRegister(v, "timeframe", func(s string) error { _, err := volatility.ParseTimeframe(s); return err })
	mustRegister(v, "nanpolicy", func(s string) error { _, err := volatility.ParseNaNPolicy(s); return err })
	return v
}

func mustRegister(v *validator.Validate, tag string, parse func(string) error) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return parse(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if c.Analysis.StartYear != 0 && c.Analysis.EndYear != 0 && c.Analysis.StartYear > c.Analysis.EndYear {
		return fmt.Errorf("analysis.start_year must not be after analysis.end_year")
	}

	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		key := strings.ToUpper(s.Name)
		if seen[key] {
			return fmt.Errorf("duplicate symbol: %s", s.Name)
		}
		seen[key] = true
	}
	return nil
}

// fieldMessage turns "Config.oanda.count" + "lte" into
// "oanda.count must be <= 5000".
func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if", "required_with":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: invalid %s %q", field, fe.Tag(), fe.Value())
	}
}

// Symbol returns the configured symbol named name (case-insensitive).
func (c *Config) Symbol(name string) (SymbolConfig, bool) {
	for _, s := range c.Symbols {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SymbolConfig{}, false
}

// CSVPath is where the processed bars of sym live.
func (c *Config) CSVPath(sym SymbolConfig) string {
	if sym.CSV != "" {
		return sym.CSV
	}
	return filepath.Join(c.Data.ProcessedDir, strings.ToUpper(sym.Name)+".csv")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
		},
		Analysis: AnalysisConfig{
			Method:   "percentage",
			Policy:   "propagate",
			Quantile: 0.99,
			Bins:     50,
		},
		Symbols: []SymbolConfig{
			{Name: "XAUUSD", Exchange: "OANDA", Instrument: "XAU_USD"},
			{Name: "BTCUSDT", Exchange: "OKX"},
			{Name: "USOIL", Exchange: "TVC", Instrument: "WTICO_USD"},
		},
		Oanda: OandaConfig{
			Env:         "practice",
			Granularity: "D",
			Price:       "M",
			Count:       5000,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./volstat.sqlite",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Cron: "0 0 22 * * 1-5",
		},
	}
}
