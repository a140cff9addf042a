package study

// Compile-time interface check.
var _ Study = (*Stochastic)(nil)

// Stochastic computes the stochastic oscillator: %K over kPeriod highs and
// lows, and %D as a simple average of the last dPeriod %K values. Outputs
// are published as "<prefix>K" and "<prefix>D" (e.g. "stochasticK",
// "stochasticD").
type Stochastic struct {
	base
	kPeriod int
	dPeriod int
	prefix  string
}

// NewStochastic creates a stochastic oscillator study.
func NewStochastic(kPeriod, dPeriod int, prefix string) *Stochastic {
	return &Stochastic{kPeriod: kPeriod, dPeriod: dPeriod, prefix: prefix}
}

// OutputNames returns the %K and %D output names.
func (s *Stochastic) OutputNames() []string {
	return []string{s.prefix + "K", s.prefix + "D"}
}

// Tick computes %K and %D for the most recent tick, emitting zeros until
// the window covers kPeriod+dPeriod-1 ticks.
func (s *Stochastic) Tick() error {
	var k, d float64
	if len(s.window) >= s.kPeriod+s.dPeriod-1 {
		k = s.percentK(len(s.window) - 1)
		sum := k
		for i := 1; i < s.dPeriod; i++ {
			sum += s.percentK(len(s.window) - 1 - i)
		}
		d = sum / float64(s.dPeriod)
	}
	s.outputs = map[string]float64{
		s.prefix + "K": k,
		s.prefix + "D": d,
	}
	return nil
}

// percentK computes %K for the tick at window index end, looking back
// kPeriod ticks.
func (s *Stochastic) percentK(end int) float64 {
	lowest, highest := 0.0, 0.0
	for i := end - s.kPeriod + 1; i <= end; i++ {
		low, _ := s.window[i].Get("low")
		high, _ := s.window[i].Get("high")
		if i == end-s.kPeriod+1 || low < lowest {
			lowest = low
		}
		if i == end-s.kPeriod+1 || high > highest {
			highest = high
		}
	}
	if highest == lowest {
		return 50
	}
	close, _ := s.window[end].Get("close")
	return 100 * (close - lowest) / (highest - lowest)
}
