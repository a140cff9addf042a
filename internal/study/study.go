// Package study defines the pluggable indicator computation contract used
// by the tick preparer, a registry for ordered study sets, and the built-in
// indicator studies.
package study

import (
	"forexbt/internal/domain"
)

// Study is a stateful indicator computation. SetData and Tick are driven in
// lockstep by the preparer: the view is updated to the current window, Tick
// computes and caches the outputs for the most recent tick, and TickOutputs
// exposes them after the per-tick barrier. A study must always emit every
// name in OutputNames, using zero before its warm-up period, so that all
// persisted documents share one field order.
type Study interface {
	// SetData points the study at the current tick window. The window is
	// read-only while Tick runs.
	SetData(window []*domain.Tick)

	// Tick computes the outputs for the most recent tick in the window.
	Tick() error

	// TickOutputs returns the outputs cached by the last Tick call.
	TickOutputs() map[string]float64

	// OutputNames returns the study's output names in a stable, declared
	// order.
	OutputNames() []string
}

// Registry holds an ordered collection of studies. Order matters: it fixes
// the field order of enriched ticks, and with it the dataset column layout.
type Registry struct {
	studies []Study
}

// NewRegistry creates an empty study Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a study to the registry.
func (r *Registry) Register(s Study) {
	r.studies = append(r.studies, s)
}

// Studies returns the registered studies in registration order.
func (r *Registry) Studies() []Study {
	return r.studies
}

// OutputCount returns the total number of output features across all
// registered studies, used to size allocations up front.
func (r *Registry) OutputCount() int {
	count := 0
	for _, s := range r.studies {
		count += len(s.OutputNames())
	}
	return count
}

// base carries the window view and output cache shared by the built-in
// studies.
type base struct {
	window  []*domain.Tick
	outputs map[string]float64
}

func (b *base) SetData(window []*domain.Tick) {
	b.window = window
}

func (b *base) TickOutputs() map[string]float64 {
	return b.outputs
}

// closes extracts the close series from the current window.
func (b *base) closes() []float64 {
	out := make([]float64, 0, len(b.window))
	for _, t := range b.window {
		if v, ok := t.Get("close"); ok {
			out = append(out, v)
		}
	}
	return out
}
