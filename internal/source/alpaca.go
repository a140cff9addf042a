// Package source acquires raw ticks for preparation and tags them with
// walk-forward partition groups.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"forexbt/internal/domain"
	"forexbt/internal/util"
)

const (
	fetchAttempts  = 3
	fetchBaseDelay = time.Second
)

// AlpacaSource fetches one-minute bars from the Alpaca market-data API and
// converts them into raw ticks.
type AlpacaSource struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials. An
// empty dataURL uses the SDK default.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("component", "alpaca-source"),
	}
}

// MinuteTicks fetches the symbol's one-minute bars within [start, end] and
// returns them as raw ticks ordered ascending by timestamp. Every tick
// carries the same fields in the same order: timestamp, open, high, low,
// close, volume.
func (s *AlpacaSource) MinuteTicks(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Tick, error) {
	var bars []marketdata.Bar
	err := util.Retry(ctx, fetchAttempts, fetchBaseDelay, func() error {
		var ferr error
		bars, ferr = s.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneMin,
			Start:     start,
			End:       end,
		})
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching minute bars for %s: %w", symbol, err)
	}

	ticks := make([]*domain.Tick, len(bars))
	for i, bar := range bars {
		tick := domain.NewTick()
		tick.Set("timestamp", float64(bar.Timestamp.Unix()))
		tick.Set("open", bar.Open)
		tick.Set("high", bar.High)
		tick.Set("low", bar.Low)
		tick.Set("close", bar.Close)
		tick.Set("volume", float64(bar.Volume))
		ticks[i] = tick
	}

	s.log.Info("fetched minute bars", "symbol", symbol, "bars", len(ticks))
	return ticks, nil
}
