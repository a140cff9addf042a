// Package prepare implements the streaming tick-preparation pipeline: it
// accumulates contiguous tick windows, drives the registered studies per
// tick behind a synchronization barrier, merges their outputs into the
// ticks, and persists windows on session breaks and size overflow.
package prepare

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"forexbt/internal/domain"
	"forexbt/internal/store"
	"forexbt/internal/study"
)

const (
	// maxGapSeconds is the largest timestamp gap between consecutive ticks
	// still considered one session. Anything larger flushes the window.
	maxGapSeconds = 60

	// flushThreshold is the window size that triggers a trim-flush.
	flushThreshold = 2000

	// retainCount is the number of most recent ticks kept resident after a
	// trim-flush.
	retainCount = 1000

	progressInterval = 10000
)

// Preparer enriches a chronological tick stream with study outputs and
// persists the enriched ticks in contiguous windows. The final partial
// window stays resident until Flush is called.
type Preparer struct {
	store   store.FeatureStore
	studies *study.Registry
	symbol  string
	workers int
	log     *slog.Logger

	window []*domain.Tick
}

// New creates a Preparer for symbol writing to the given store. The study
// worker pool is sized to the available hardware parallelism.
func New(s store.FeatureStore, studies *study.Registry, symbol string, log *slog.Logger) *Preparer {
	return &Preparer{
		store:   s,
		studies: studies,
		symbol:  symbol,
		workers: runtime.GOMAXPROCS(0),
		log:     log.With("component", "preparer", "symbol", symbol),
	}
}

// Process consumes raw ticks in timestamp order, running every registered
// study per tick and merging the outputs into the tick before it is
// buffered for persistence. A storage or study failure aborts immediately;
// at most one unflushed window is lost.
func (p *Preparer) Process(ctx context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	for i, tick := range ticks {
		// A gap beyond one minute is a session break: persist the current
		// window and start over with the incoming tick.
		if len(p.window) > 0 {
			last, _ := p.window[len(p.window)-1].Get("timestamp")
			current, ok := tick.Get("timestamp")
			if !ok {
				return fmt.Errorf("tick %d has no timestamp field", i)
			}
			if current-last > maxGapSeconds {
				if err := p.persist(ctx, p.window); err != nil {
					return err
				}
				p.window = nil
			}
		}

		p.window = append(p.window, tick)

		if err := p.runStudies(ctx, tick); err != nil {
			return err
		}

		// Bound memory: persist the oldest ticks, retain the most recent.
		if len(p.window) >= flushThreshold {
			cut := len(p.window) - retainCount
			if err := p.persist(ctx, p.window[:cut]); err != nil {
				return err
			}
			retained := make([]*domain.Tick, retainCount)
			copy(retained, p.window[cut:])
			p.window = retained
		}

		if (i+1)%progressInterval == 0 {
			p.log.Info("preparing data",
				"processed", i+1,
				"total", len(ticks),
				"elapsed", time.Since(start).Round(time.Second),
			)
		}
	}

	return nil
}

// Flush persists whatever remains in the window. Callers must invoke it
// after the final Process call; exhausting the input does not flush
// automatically.
func (p *Preparer) Flush(ctx context.Context) error {
	if err := p.persist(ctx, p.window); err != nil {
		return err
	}
	p.window = nil
	return nil
}

// runStudies updates every study's view to the current window, runs their
// per-tick computations concurrently on the bounded pool, blocks until all
// complete, and merges the outputs into the tick. Studies are mutually
// independent at a fixed tick but must never race across ticks, so the
// barrier gates advancement.
func (p *Preparer) runStudies(ctx context.Context, tick *domain.Tick) error {
	studies := p.studies.Studies()
	if len(studies) == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, s := range studies {
		s.SetData(p.window)
		g.Go(s.Tick)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("study computation: %w", err)
	}

	// Merge in registration order, each study's outputs in declared order,
	// so every enriched tick carries an identical field order.
	for _, s := range studies {
		outputs := s.TickOutputs()
		for _, name := range s.OutputNames() {
			tick.Set(name, outputs[name])
		}
	}
	return nil
}

// persist strips the partition tags from each tick and bulk-writes the
// resulting documents.
func (p *Preparer) persist(ctx context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	docs := make([]domain.Document, len(ticks))
	for i, tick := range ticks {
		testing, _ := tick.Get("testingGroups")
		validation, _ := tick.Get("validationGroups")
		tick.Delete("testingGroups")
		tick.Delete("validationGroups")
		docs[i] = domain.Document{
			Symbol:           p.symbol,
			TestingGroups:    int(testing),
			ValidationGroups: int(validation),
			Data:             tick,
		}
	}

	if err := p.store.SaveDocuments(ctx, docs); err != nil {
		return fmt.Errorf("persisting %d ticks: %w", len(docs), err)
	}
	return nil
}
