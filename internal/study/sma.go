package study

import (
	"github.com/thrasher-corp/gct-ta/indicators"
)

// Compile-time interface checks.
var _ Study = (*SMA)(nil)
var _ Study = (*EMA)(nil)
var _ Study = (*RSI)(nil)

// SMA computes a simple moving average of closes over a fixed period,
// published under a single named output (e.g. "sma13").
type SMA struct {
	base
	period int
	name   string
}

// NewSMA creates an SMA study with the given period and output name.
func NewSMA(period int, name string) *SMA {
	return &SMA{period: period, name: name}
}

// OutputNames returns the single SMA output name.
func (s *SMA) OutputNames() []string { return []string{s.name} }

// Tick computes the SMA for the most recent tick, emitting zero until the
// window covers a full period.
func (s *SMA) Tick() error {
	var v float64
	if closes := s.closes(); len(closes) >= s.period {
		series := indicators.SMA(closes, s.period)
		if len(series) > 0 {
			v = series[len(series)-1]
		}
	}
	s.outputs = map[string]float64{s.name: v}
	return nil
}

// EMA computes an exponential moving average of closes over a fixed period,
// published under a single named output (e.g. "ema50").
type EMA struct {
	base
	period int
	name   string
}

// NewEMA creates an EMA study with the given period and output name.
func NewEMA(period int, name string) *EMA {
	return &EMA{period: period, name: name}
}

// OutputNames returns the single EMA output name.
func (e *EMA) OutputNames() []string { return []string{e.name} }

// Tick computes the EMA for the most recent tick, emitting zero until the
// window covers a full period.
func (e *EMA) Tick() error {
	var v float64
	if closes := e.closes(); len(closes) >= e.period {
		series := indicators.EMA(closes, e.period)
		if len(series) > 0 {
			v = series[len(series)-1]
		}
	}
	e.outputs = map[string]float64{e.name: v}
	return nil
}

// RSI computes the relative strength index of closes over a fixed period,
// published under a single named output.
type RSI struct {
	base
	period int
	name   string
}

// NewRSI creates an RSI study with the given period and output name.
func NewRSI(period int, name string) *RSI {
	return &RSI{period: period, name: name}
}

// OutputNames returns the single RSI output name.
func (r *RSI) OutputNames() []string { return []string{r.name} }

// Tick computes the RSI for the most recent tick, emitting zero until the
// window covers period+1 closes.
func (r *RSI) Tick() error {
	var v float64
	if closes := r.closes(); len(closes) > r.period {
		series := indicators.RSI(closes, r.period)
		if len(series) > 0 {
			v = series[len(series)-1]
		}
	}
	r.outputs = map[string]float64{r.name: v}
	return nil
}
