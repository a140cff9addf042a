// Package store defines the feature-document storage contract consumed by
// the preparer and the dataset loader, with SQLite and Parquet backends.
package store

import (
	"context"

	"forexbt/internal/domain"
)

// FeatureStore persists and streams enriched feature documents.
type FeatureStore interface {
	// SaveDocuments writes a batch of documents as one bulk,
	// order-independent insert.
	SaveDocuments(ctx context.Context, docs []domain.Document) error

	// CountDocuments returns the number of documents stored for symbol.
	CountDocuments(ctx context.Context, symbol string) (int, error)

	// QueryOrdered streams the documents for symbol ordered ascending by
	// their timestamp feature, fetching batchSize documents at a time. Each
	// call returns a fresh iterator.
	QueryOrdered(ctx context.Context, symbol string, batchSize int) (DocumentIterator, error)
}

// DocumentIterator yields documents one at a time. Next returns io.EOF when
// the stream is exhausted.
type DocumentIterator interface {
	Next() (*domain.Document, error)
	Close() error
}
