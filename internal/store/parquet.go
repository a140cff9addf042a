package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"forexbt/internal/domain"
)

// Compile-time interface check.
var _ FeatureStore = (*ParquetStore)(nil)

// ParquetStore implements FeatureStore using Parquet files on disk. Each
// bulk save produces one file under <DataDir>/datapoints/<SYMBOL>/; ordered
// queries read and merge all files for the symbol.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// featureRecord is the Parquet schema for one persisted document. The
// feature data is carried as an order-preserving JSON object, matching the
// SQLite backend.
type featureRecord struct {
	Symbol           string  `parquet:"symbol"`
	TestingGroups    int32   `parquet:"testing_groups"`
	ValidationGroups int32   `parquet:"validation_groups"`
	Timestamp        float64 `parquet:"timestamp"`
	Data             string  `parquet:"data"`
}

// SaveDocuments writes the batch as a new Parquet file per symbol.
func (s *ParquetStore) SaveDocuments(_ context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	groups := make(map[string][]featureRecord)
	for i := range docs {
		doc := &docs[i]
		ts, err := doc.Timestamp()
		if err != nil {
			return err
		}
		data, err := doc.Data.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding document for %s: %w", doc.Symbol, err)
		}
		groups[doc.Symbol] = append(groups[doc.Symbol], featureRecord{
			Symbol:           doc.Symbol,
			TestingGroups:    int32(doc.TestingGroups),
			ValidationGroups: int32(doc.ValidationGroups),
			Timestamp:        ts,
			Data:             string(data),
		})
	}

	for symbol, records := range groups {
		dir := s.symbolDir(symbol)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path, err := s.nextBatchPath(dir)
		if err != nil {
			return err
		}
		if err := parquet.WriteFile(path, records); err != nil {
			return fmt.Errorf("writing datapoints for %s: %w", symbol, err)
		}
	}
	return nil
}

// CountDocuments returns the total number of rows across the symbol's
// Parquet files.
func (s *ParquetStore) CountDocuments(_ context.Context, symbol string) (int, error) {
	records, err := s.readAll(symbol)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// QueryOrdered reads all files for the symbol, sorts by timestamp, and
// returns an in-memory iterator. batchSize is accepted for interface parity;
// the file backend materializes the full set up front.
func (s *ParquetStore) QueryOrdered(_ context.Context, symbol string, batchSize int) (DocumentIterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	records, err := s.readAll(symbol)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	docs := make([]*domain.Document, len(records))
	for i, r := range records {
		tick, err := domain.ParseTick([]byte(r.Data))
		if err != nil {
			return nil, fmt.Errorf("decoding document for %s: %w", symbol, err)
		}
		docs[i] = &domain.Document{
			Symbol:           r.Symbol,
			TestingGroups:    int(r.TestingGroups),
			ValidationGroups: int(r.ValidationGroups),
			Data:             tick,
		}
	}
	return &sliceIterator{docs: docs}, nil
}

// readAll loads every record across the symbol's batch files.
func (s *ParquetStore) readAll(symbol string) ([]featureRecord, error) {
	dir := s.symbolDir(symbol)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var all []featureRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		records, err := parquet.ReadFile[featureRecord](filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// symbolDir returns the directory holding the symbol's batch files.
// Layout: <DataDir>/datapoints/<SYMBOL>
func (s *ParquetStore) symbolDir(symbol string) string {
	return filepath.Join(s.DataDir, "datapoints", strings.ToUpper(symbol))
}

// nextBatchPath returns an unused, zero-padded batch file path within dir.
func (s *ParquetStore) nextBatchPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	seq := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".parquet") {
			seq++
		}
	}
	return filepath.Join(dir, fmt.Sprintf("batch-%06d.parquet", seq)), nil
}

// sliceIterator walks a fully materialized document list.
type sliceIterator struct {
	docs []*domain.Document
	pos  int
}

func (it *sliceIterator) Next() (*domain.Document, error) {
	if it.pos >= len(it.docs) {
		return nil, io.EOF
	}
	doc := it.docs[it.pos]
	it.pos++
	return doc, nil
}

func (it *sliceIterator) Close() error {
	it.docs = nil
	return nil
}
