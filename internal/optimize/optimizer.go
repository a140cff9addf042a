package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"forexbt/internal/dataset"
	"forexbt/internal/domain"
	"forexbt/internal/strategy"
)

const progressInterval = 10000

// Optimizer drives one strategy per configuration across every dataset row
// in order, parallelized across strategies at each row.
type Optimizer struct {
	dataset *dataset.Dataset
	workers int
	log     *slog.Logger
}

// New creates an Optimizer over the loaded dataset. The worker pool is
// sized to the available hardware parallelism.
func New(ds *dataset.Dataset, log *slog.Logger) *Optimizer {
	return &Optimizer{
		dataset: ds,
		workers: runtime.GOMAXPROCS(0),
		log:     log.With("component", "optimizer"),
	}
}

// Run instantiates one strategy per configuration via factory and steps all
// of them through every row: each row dispatches one backtest task per
// strategy onto the bounded pool and blocks until all complete before
// advancing. Strategies are mutually independent at a fixed row, but each
// strategy's state is a sequential function of the rows it has seen, so the
// per-row barrier is mandatory. The strategies are returned for the caller
// to query after the pass; a task failure aborts the pass.
func (o *Optimizer) Run(
	ctx context.Context,
	factory strategy.Factory,
	symbol string,
	group int,
	configurations []*domain.Configuration,
	investment, profitability float64,
) ([]strategy.Strategy, error) {
	strategies := make([]strategy.Strategy, len(configurations))
	for i, cfg := range configurations {
		s, err := factory(symbol, o.dataset.Index(), group, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating strategy %d: %w", i, err)
		}
		strategies[i] = s
	}
	o.log.Info("strategies prepared", "count", len(strategies))

	start := time.Now()
	rows := o.dataset.Rows()
	for row := 0; row < rows; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rowData := o.dataset.Row(row)

		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for _, s := range strategies {
			g.Go(func() error {
				return s.Backtest(rowData, investment, profitability)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("backtesting row %d: %w", row, err)
		}

		if (row+1)%progressInterval == 0 {
			o.log.Info("optimizing",
				"row", row+1,
				"total", rows,
				"elapsed", time.Since(start).Round(time.Second),
			)
		}
	}

	o.log.Info("optimization pass complete",
		"rows", rows,
		"strategies", len(strategies),
		"elapsed", time.Since(start).Round(time.Second),
	)
	return strategies, nil
}
