package study

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Compile-time interface check.
var _ Study = (*PRChannel)(nil)

// PRChannel fits a polynomial regression to the closes of the trailing
// period and publishes upper and lower channel bounds at the regression
// value plus/minus deviations standard deviations of the residuals.
// Outputs are "<prefix>Upper" and "<prefix>Lower" (e.g. "prChannelUpper",
// "prChannelLower").
type PRChannel struct {
	base
	period     int
	degree     int
	deviations float64
	prefix     string
}

// NewPRChannel creates a polynomial regression channel study.
func NewPRChannel(period, degree int, deviations float64, prefix string) *PRChannel {
	return &PRChannel{period: period, degree: degree, deviations: deviations, prefix: prefix}
}

// OutputNames returns the upper and lower channel output names.
func (p *PRChannel) OutputNames() []string {
	return []string{p.prefix + "Upper", p.prefix + "Lower"}
}

// Tick fits the regression for the most recent tick, emitting zeros until
// the window covers a full period.
func (p *PRChannel) Tick() error {
	var upper, lower float64
	if closes := p.closes(); len(closes) >= p.period {
		tail := closes[len(closes)-p.period:]
		fit, stddev, err := p.regress(tail)
		if err != nil {
			return fmt.Errorf("regression channel %s: %w", p.prefix, err)
		}
		upper = fit + p.deviations*stddev
		lower = fit - p.deviations*stddev
	}
	p.outputs = map[string]float64{
		p.prefix + "Upper": upper,
		p.prefix + "Lower": lower,
	}
	return nil
}

// regress least-squares fits a degree-p.degree polynomial to values and
// returns the fitted value at the last point plus the residual standard
// deviation.
func (p *PRChannel) regress(values []float64) (fit, stddev float64, err error) {
	n := len(values)
	cols := p.degree + 1

	a := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(n, values)

	var qr mat.QR
	qr.Factorize(a)

	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, b); err != nil {
		return 0, 0, err
	}

	eval := func(x float64) float64 {
		y, v := 0.0, 1.0
		for j := 0; j < cols; j++ {
			y += coef.At(j, 0) * v
			v *= x
		}
		return y
	}

	var sumSq float64
	for i := 0; i < n; i++ {
		r := values[i] - eval(float64(i))
		sumSq += r * r
	}
	stddev = math.Sqrt(sumSq / float64(n))

	return eval(float64(n - 1)), stddev, nil
}
