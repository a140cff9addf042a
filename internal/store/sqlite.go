package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"forexbt/internal/domain"
)

// Compile-time interface check.
var _ FeatureStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS datapoints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	testing_groups INTEGER NOT NULL,
	validation_groups INTEGER NOT NULL,
	timestamp REAL NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datapoints_symbol_timestamp
	ON datapoints (symbol, timestamp);
`

// SQLiteStore implements FeatureStore backed by a SQLite database. The
// feature data of each document is stored as a JSON object whose key order
// is the tick's field order; the timestamp is additionally extracted into
// an indexed column for ordered retrieval.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the datapoints table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating datapoints schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveDocuments inserts the batch inside a single transaction.
func (s *SQLiteStore) SaveDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO datapoints (symbol, testing_groups, validation_groups, timestamp, data)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range docs {
		doc := &docs[i]
		ts, err := doc.Timestamp()
		if err != nil {
			tx.Rollback()
			return err
		}
		data, err := doc.Data.MarshalJSON()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding document for %s: %w", doc.Symbol, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.Symbol, doc.TestingGroups, doc.ValidationGroups, ts, data); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting document for %s: %w", doc.Symbol, err)
		}
	}

	return tx.Commit()
}

// CountDocuments returns the number of documents stored for symbol.
func (s *SQLiteStore) CountDocuments(ctx context.Context, symbol string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datapoints WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents for %s: %w", symbol, err)
	}
	return count, nil
}

// QueryOrdered returns an iterator over the documents for symbol, ordered
// ascending by timestamp and fetched in pages of batchSize rows.
func (s *SQLiteStore) QueryOrdered(ctx context.Context, symbol string, batchSize int) (DocumentIterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &sqliteIterator{
		ctx:       ctx,
		db:        s.db,
		symbol:    symbol,
		batchSize: batchSize,
	}, nil
}

// sqliteIterator pages through datapoints with LIMIT/OFFSET queries,
// decoding one batch at a time.
type sqliteIterator struct {
	ctx       context.Context
	db        *sql.DB
	symbol    string
	batchSize int

	offset  int
	batch   []*domain.Document
	pos     int
	drained bool
}

func (it *sqliteIterator) Next() (*domain.Document, error) {
	if it.pos >= len(it.batch) {
		if it.drained {
			return nil, io.EOF
		}
		if err := it.fetch(); err != nil {
			return nil, err
		}
		if len(it.batch) == 0 {
			return nil, io.EOF
		}
	}
	doc := it.batch[it.pos]
	it.pos++
	return doc, nil
}

func (it *sqliteIterator) Close() error {
	it.batch = nil
	it.drained = true
	return nil
}

func (it *sqliteIterator) fetch() error {
	rows, err := it.db.QueryContext(it.ctx, `
		SELECT symbol, testing_groups, validation_groups, data
		FROM datapoints
		WHERE symbol = ?
		ORDER BY timestamp ASC
		LIMIT ? OFFSET ?`,
		it.symbol, it.batchSize, it.offset)
	if err != nil {
		return fmt.Errorf("querying documents for %s: %w", it.symbol, err)
	}
	defer rows.Close()

	it.batch = it.batch[:0]
	it.pos = 0
	for rows.Next() {
		var (
			doc  domain.Document
			data []byte
		)
		if err := rows.Scan(&doc.Symbol, &doc.TestingGroups, &doc.ValidationGroups, &data); err != nil {
			return err
		}
		doc.Data, err = domain.ParseTick(data)
		if err != nil {
			return fmt.Errorf("decoding document for %s: %w", it.symbol, err)
		}
		it.batch = append(it.batch, &doc)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	it.offset += len(it.batch)
	if len(it.batch) < it.batchSize {
		it.drained = true
	}
	return nil
}
