// Package strategy defines the Strategy contract driven by the optimizer
// and a factory registry for looking strategies up by name.
package strategy

import (
	"fmt"
	"sort"

	"forexbt/internal/domain"
)

// Strategy is one simulated trading strategy under a fixed configuration.
// Backtest advances its internal state by exactly one dataset row; the
// optimizer guarantees rows arrive in ascending timestamp order.
type Strategy interface {
	Backtest(row []float64, investment, profitability float64) error
}

// Factory creates a strategy instance for one configuration point.
type Factory func(symbol string, index domain.DataIndex, group int, cfg *domain.Configuration) (Strategy, error)

// Registry holds named strategy factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any previous registration.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get retrieves the factory registered under name.
func (r *Registry) Get(name string) (Factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.List())
	}
	return f, nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
