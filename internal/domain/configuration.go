package domain

import "github.com/volatiletech/null"

// ---------------------------------------------------------------------------
// Parameter grid option types
// ---------------------------------------------------------------------------

// OptionValue is one value inside an assignment-set: either a symbolic
// reference to a dataset feature, resolved to its column at
// configuration-build time, or a literal number passed through unchanged.
type OptionValue interface {
	optionValue()
}

// Reference names a dataset feature whose column position the configuration
// will carry.
type Reference string

// Literal is a fixed numeric parameter, typically a threshold.
type Literal float64

func (Reference) optionValue() {}
func (Literal) optionValue()   {}

// Assignment is one named set of key/value pairs contributed by an option.
type Assignment map[string]OptionValue

// ConfigurationOption is one dimension of the parameter grid: the list of
// assignment-sets the builder multiplies against every other option.
type ConfigurationOption []Assignment

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Configuration is one point in the strategy parameter grid. The core OHLC
// and timestamp columns are always populated; indicator columns and
// thresholds are populated only when some option's assignment-set
// contributed them, and are explicitly unset otherwise. A configuration is
// immutable once built.
type Configuration struct {
	// Core dataset columns, always set.
	Timestamp int
	Open      int
	High      int
	Low       int
	Close     int

	// Indicator columns, set only when contributed by an option.
	SMA13          null.Int
	EMA50          null.Int
	EMA100         null.Int
	EMA200         null.Int
	RSI            null.Int
	StochasticD    null.Int
	StochasticK    null.Int
	PRChannelUpper null.Int
	PRChannelLower null.Int

	// Numeric thresholds, set only when contributed by an option.
	RSIOverbought        null.Float64
	RSIOversold          null.Float64
	StochasticOverbought null.Float64
	StochasticOversold   null.Float64
}
