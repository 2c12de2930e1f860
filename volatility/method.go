// Package volatility turns a price series into per-year volatility figures and
// summary statistics.
//
// All functions are pure: they read a market.Series or a slice of values and
// return new values without touching their inputs.
package volatility

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMethod       = errors.New("volatility: invalid method")
	ErrInvalidTimeframe    = errors.New("volatility: invalid timeframe")
	ErrInvalidPolicy       = errors.New("volatility: invalid NaN policy")
	ErrUndefinedVolatility = errors.New("volatility: undefined volatility")
	ErrNoData              = errors.New("volatility: no data")
	ErrInvalidQuantile     = errors.New("volatility: quantile out of range")
)

// Method selects how a bar is turned into a return.
type Method int

const (
	// Percentage is close-to-close percentage change.
	Percentage Method = iota + 1
	// HLO is the bar range (high - low) / open.
	HLO
)

func (m Method) String() string {
	switch m {
	case Percentage:
		return "PERCENTAGE"
	case HLO:
		return "HLO"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func (m Method) Valid() bool {
	return m == Percentage || m == HLO
}

// ParseMethod accepts the tag names PERCENTAGE and HLO and their short
// forms pct and hlo, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "pct":
		return Percentage, nil
	case "hlo":
		return HLO, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidMethod)
	}
}

// Methods lists every method in display order.
func Methods() []Method {
	return []Method{Percentage, HLO}
}

// Timeframe selects the scale volatility is reported on.
type Timeframe int

const (
	// Daily reports the raw per-bar standard deviation.
	Daily Timeframe = iota + 1
	// Yearly annualizes the daily figure by AnnualizationFactor.
	Yearly
)

func (tf Timeframe) String() string {
	switch tf {
	case Daily:
		return "DAILY"
	case Yearly:
		return "YEARLY"
	default:
		return fmt.Sprintf("Timeframe(%d)", int(tf))
	}
}

// Title is the panel heading used by the dashboard views.
func (tf Timeframe) Title() string {
	if tf == Daily {
		return "Daily Volatility"
	}
	return "Annualized Volatility"
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "yearly":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTimeframe)
	}
}

// NaNPolicy decides what happens to years whose volatility is undefined
// because they hold fewer than two return observations.
type NaNPolicy int

const (
	// Propagate keeps NaN years in the series; Summarize skips them.
	Propagate NaNPolicy = iota
	// Drop removes NaN years from the series.
	Drop
	// Raise fails the computation with ErrUndefinedVolatility.
	Raise
)

func (p NaNPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case Drop:
		return "drop"
	case Raise:
		return "raise"
	default:
		return fmt.Sprintf("NaNPolicy(%d)", int(p))
	}
}

func ParseNaNPolicy(s string) (NaNPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "propagate":
		return Propagate, nil
	case "drop":
		return Drop, nil
	case "raise":
		return Raise, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidPolicy)
	}
}
