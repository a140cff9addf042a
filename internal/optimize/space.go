// Package optimize expands the parameter grid into concrete strategy
// configurations and drives one simulated strategy per configuration across
// the loaded dataset in lockstep.
package optimize

import (
	"fmt"
	"sort"

	"github.com/volatiletech/null"

	"forexbt/internal/domain"
)

// resolvedValue is an accumulator entry: either a dataset column (from a
// feature reference) or a literal number.
type resolvedValue struct {
	column   int
	value    float64
	isColumn bool
}

type accumulator map[string]resolvedValue

func (a accumulator) clone() accumulator {
	out := make(accumulator, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// BuildConfigurations expands the full Cartesian product of the given
// options into concrete configurations, resolving feature references
// against the data index. A reference to an unknown feature fails the whole
// build with no partial result. With no options, the single base
// configuration carrying only the core columns is returned.
func BuildConfigurations(
	options map[string]domain.ConfigurationOption,
	index domain.DataIndex,
) ([]*domain.Configuration, error) {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	var points []accumulator
	if len(names) == 0 {
		points = []accumulator{{}}
	} else {
		var err error
		points, err = expand(options, names, 0, index, accumulator{})
		if err != nil {
			return nil, err
		}
	}

	configurations := make([]*domain.Configuration, 0, len(points))
	for _, point := range points {
		cfg, err := materialize(point, index)
		if err != nil {
			return nil, err
		}
		configurations = append(configurations, cfg)
	}
	return configurations, nil
}

// expand recurses depth-first over the options. Every branch operates on
// its own accumulator copy: sibling branches must never observe each
// other's values.
func expand(
	options map[string]domain.ConfigurationOption,
	names []string,
	optionIndex int,
	index domain.DataIndex,
	current accumulator,
) ([]accumulator, error) {
	var results []accumulator

	name := names[optionIndex]
	for _, assignment := range options[name] {
		branch := current.clone()
		for key, value := range assignment {
			switch v := value.(type) {
			case domain.Reference:
				column, err := index.Column(string(v))
				if err != nil {
					return nil, fmt.Errorf("option %q key %q: %w", name, key, err)
				}
				branch[key] = resolvedValue{column: column, isColumn: true}
			case domain.Literal:
				branch[key] = resolvedValue{value: float64(v)}
			default:
				return nil, fmt.Errorf("option %q key %q: unsupported value type %T", name, key, value)
			}
		}

		if optionIndex+1 < len(names) {
			sub, err := expand(options, names, optionIndex+1, index, branch)
			if err != nil {
				return nil, err
			}
			results = append(results, sub...)
		} else {
			results = append(results, branch)
		}
	}

	return results, nil
}

// materialize converts a completed accumulator into a Configuration. The
// core columns are always populated; the fixed optional field set is copied
// only when present, everything else stays unset.
func materialize(point accumulator, index domain.DataIndex) (*domain.Configuration, error) {
	cfg := &domain.Configuration{}

	core := []struct {
		name string
		dst  *int
	}{
		{"timestamp", &cfg.Timestamp},
		{"open", &cfg.Open},
		{"high", &cfg.High},
		{"low", &cfg.Low},
		{"close", &cfg.Close},
	}
	for _, c := range core {
		column, err := index.Column(c.name)
		if err != nil {
			return nil, fmt.Errorf("core column: %w", err)
		}
		*c.dst = column
	}

	columns := []struct {
		key string
		dst *null.Int
	}{
		{"sma13", &cfg.SMA13},
		{"ema50", &cfg.EMA50},
		{"ema100", &cfg.EMA100},
		{"ema200", &cfg.EMA200},
		{"rsi", &cfg.RSI},
		{"stochasticD", &cfg.StochasticD},
		{"stochasticK", &cfg.StochasticK},
		{"prChannelUpper", &cfg.PRChannelUpper},
		{"prChannelLower", &cfg.PRChannelLower},
	}
	for _, c := range columns {
		if v, ok := point[c.key]; ok && v.isColumn {
			*c.dst = null.IntFrom(v.column)
		}
	}

	values := []struct {
		key string
		dst *null.Float64
	}{
		{"rsiOverbought", &cfg.RSIOverbought},
		{"rsiOversold", &cfg.RSIOversold},
		{"stochasticOverbought", &cfg.StochasticOverbought},
		{"stochasticOversold", &cfg.StochasticOversold},
	}
	for _, c := range values {
		if v, ok := point[c.key]; ok && !v.isColumn {
			*c.dst = null.Float64From(v.value)
		}
	}

	return cfg, nil
}
