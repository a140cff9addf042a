package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"forexbt/internal/domain"
	"forexbt/internal/store"
)

const (
	queryBatchSize   = 1000
	progressInterval = 50000
)

// ErrNoData indicates that no documents exist for the requested symbol.
var ErrNoData = errors.New("no documents for symbol")

// Loader builds a Dataset and its DataIndex from persisted feature
// documents.
type Loader struct {
	store store.FeatureStore
	log   *slog.Logger
}

// NewLoader creates a Loader reading from the given store.
func NewLoader(s store.FeatureStore, log *slog.Logger) *Loader {
	return &Loader{store: s, log: log.With("component", "loader")}
}

// Load streams the symbol's documents in ascending timestamp order into a
// dense matrix. The data index is built from the first document's field
// order; every subsequent document is copied positionally, relying on the
// invariant that all documents for a symbol share one field order.
func (l *Loader) Load(ctx context.Context, symbol string) (*Dataset, error) {
	count, err := l.store.CountDocuments(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("counting documents for %s: %w", symbol, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	it, err := l.store.QueryOrdered(ctx, symbol, queryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("querying documents for %s: %w", symbol, err)
	}
	defer it.Close()

	start := time.Now()
	var (
		ds  *Dataset
		row int
	)
	for {
		doc, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loading documents for %s: %w", symbol, err)
		}

		// The first document fixes the column layout for the entire matrix.
		if row == 0 {
			ds = New(domain.BuildDataIndex(doc.Data.Names()), count)
		}
		if row >= count {
			return nil, fmt.Errorf("loading %s: storage returned more than the %d counted rows", symbol, count)
		}

		// Positional copy: values land in the order encountered, with no
		// per-row name lookups.
		copy(ds.Row(row), doc.Data.Values())
		row++

		if row%progressInterval == 0 {
			l.log.Info("loading data",
				"symbol", symbol,
				"loaded", row,
				"total", count,
				"elapsed", time.Since(start).Round(time.Second),
			)
		}
	}

	if row != count {
		return nil, fmt.Errorf("loading %s: counted %d rows but loaded %d", symbol, count, row)
	}

	l.log.Info("data loaded", "symbol", symbol, "rows", ds.Rows(), "cols", ds.Cols())
	return ds, nil
}
