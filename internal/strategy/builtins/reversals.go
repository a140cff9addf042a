// Package builtins provides the built-in strategy implementations shipped
// with the optimizer.
package builtins

import (
	"fmt"

	"forexbt/internal/domain"
	"forexbt/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Reversals)(nil)

// expiryRows is the number of rows after which an open position settles.
const expiryRows = 5

// Reversals is a binary-options style reversal strategy. An RSI move
// through the configured oversold (overbought) threshold opens a call (put)
// with a fixed expiry; at expiry the position settles for
// investment*profitability on a win or -investment on a loss. When EMA
// trend columns are configured, entries must agree with the trend.
type Reversals struct {
	symbol string
	group  int
	cfg    *domain.Configuration

	row     int
	prevRSI float64
	hasPrev bool

	open *position

	balance float64
	wins    int
	losses  int
}

// position is one open binary-options trade.
type position struct {
	isCall      bool
	strikePrice float64
	settlesAt   int
}

// Results summarizes a strategy after an optimization pass.
type Results struct {
	Balance float64
	Wins    int
	Losses  int
	Trades  int
}

// NewReversals creates a Reversals instance for one configuration point. It
// requires the RSI column and both RSI thresholds to be configured.
func NewReversals(symbol string, _ domain.DataIndex, group int, cfg *domain.Configuration) (strategy.Strategy, error) {
	if !cfg.RSI.Valid {
		return nil, fmt.Errorf("reversals strategy for %s: configuration has no rsi column", symbol)
	}
	if !cfg.RSIOverbought.Valid || !cfg.RSIOversold.Valid {
		return nil, fmt.Errorf("reversals strategy for %s: configuration has no rsi thresholds", symbol)
	}
	return &Reversals{symbol: symbol, group: group, cfg: cfg}, nil
}

// Register adds the built-in strategies to the registry.
func Register(r *strategy.Registry) {
	r.Register("reversals", NewReversals)
}

// Backtest advances the strategy by one row: settles an expired position,
// then evaluates entry signals against the row's indicator columns.
func (s *Reversals) Backtest(row []float64, investment, profitability float64) error {
	closePrice := row[s.cfg.Close]

	if s.open != nil && s.row >= s.open.settlesAt {
		s.settle(closePrice, investment, profitability)
	}

	rsi := row[s.cfg.RSI.Int]
	if s.open == nil && s.hasPrev {
		oversold := s.cfg.RSIOversold.Float64
		overbought := s.cfg.RSIOverbought.Float64

		switch {
		case s.prevRSI > oversold && rsi <= oversold && s.trendAllowsCall(row):
			s.open = &position{isCall: true, strikePrice: closePrice, settlesAt: s.row + expiryRows}
		case s.prevRSI < overbought && rsi >= overbought && s.trendAllowsPut(row):
			s.open = &position{isCall: false, strikePrice: closePrice, settlesAt: s.row + expiryRows}
		}
	}

	s.prevRSI = rsi
	s.hasPrev = true
	s.row++
	return nil
}

// settle resolves the open position against the current close.
func (s *Reversals) settle(closePrice, investment, profitability float64) {
	won := (s.open.isCall && closePrice > s.open.strikePrice) ||
		(!s.open.isCall && closePrice < s.open.strikePrice)
	if won {
		s.balance += investment * profitability
		s.wins++
	} else {
		s.balance -= investment
		s.losses++
	}
	s.open = nil
}

// trendAllowsCall reports whether the EMA trend filter permits a call. With
// no EMA columns configured the filter is inactive.
func (s *Reversals) trendAllowsCall(row []float64) bool {
	if !s.cfg.EMA50.Valid || !s.cfg.EMA100.Valid {
		return true
	}
	return row[s.cfg.EMA50.Int] >= row[s.cfg.EMA100.Int]
}

// trendAllowsPut reports whether the EMA trend filter permits a put.
func (s *Reversals) trendAllowsPut(row []float64) bool {
	if !s.cfg.EMA50.Valid || !s.cfg.EMA100.Valid {
		return true
	}
	return row[s.cfg.EMA50.Int] <= row[s.cfg.EMA100.Int]
}

// Results returns the settled performance of this strategy instance.
func (s *Reversals) Results() Results {
	return Results{
		Balance: s.balance,
		Wins:    s.wins,
		Losses:  s.losses,
		Trades:  s.wins + s.losses,
	}
}
