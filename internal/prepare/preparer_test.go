package prepare

import (
	"context"
	"errors"
	"testing"

	"forexbt/internal/domain"
	"forexbt/internal/store"
	"forexbt/internal/study"
	"forexbt/internal/util"
)

// memStore records every persisted batch in order.
type memStore struct {
	batches [][]domain.Document
	saveErr error
}

var _ store.FeatureStore = (*memStore)(nil)

func (m *memStore) SaveDocuments(_ context.Context, docs []domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	batch := make([]domain.Document, len(docs))
	copy(batch, docs)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memStore) CountDocuments(context.Context, string) (int, error) {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n, nil
}

func (m *memStore) QueryOrdered(context.Context, string, int) (store.DocumentIterator, error) {
	return nil, errors.New("not implemented")
}

func (m *memStore) total() int {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

// constantStudy always outputs a fixed value.
type constantStudy struct {
	name  string
	value float64
	out   map[string]float64
}

func (c *constantStudy) SetData([]*domain.Tick) {}
func (c *constantStudy) Tick() error {
	c.out = map[string]float64{c.name: c.value}
	return nil
}
func (c *constantStudy) TickOutputs() map[string]float64 { return c.out }
func (c *constantStudy) OutputNames() []string           { return []string{c.name} }

// failingStudy fails on every tick.
type failingStudy struct{ constantStudy }

func (f *failingStudy) Tick() error { return errors.New("study exploded") }

func rawTick(ts float64) *domain.Tick {
	t := domain.NewTick()
	t.Set("timestamp", ts)
	t.Set("open", 1.09)
	t.Set("high", 1.1)
	t.Set("low", 1.08)
	t.Set("close", 1.095)
	t.Set("testingGroups", 1)
	t.Set("validationGroups", 2)
	return t
}

func contiguousTicks(n int) []*domain.Tick {
	ticks := make([]*domain.Tick, n)
	for i := range ticks {
		ticks[i] = rawTick(float64(i * 60))
	}
	return ticks
}

func newTestPreparer(s store.FeatureStore, studies *study.Registry) *Preparer {
	if studies == nil {
		studies = study.NewRegistry()
	}
	return New(s, studies, "EURUSD", util.NewLogger("error", "text"))
}

func TestProcessEmptyInputIsNoop(t *testing.T) {
	ms := &memStore{}
	p := newTestPreparer(ms, nil)

	if err := p.Process(context.Background(), nil); err != nil {
		t.Fatalf("Process(nil): %v", err)
	}
	if len(ms.batches) != 0 {
		t.Errorf("empty input persisted %d batches", len(ms.batches))
	}
}

func TestGapFlushesWindow(t *testing.T) {
	ms := &memStore{}
	p := newTestPreparer(ms, nil)
	ctx := context.Background()

	// Gaps: 60 (contiguous), 140 (session break).
	ticks := []*domain.Tick{rawTick(0), rawTick(60), rawTick(200)}
	if err := p.Process(ctx, ticks); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(ms.batches) != 1 {
		t.Fatalf("gap produced %d flushes, want 1", len(ms.batches))
	}
	if len(ms.batches[0]) != 2 {
		t.Errorf("gap flush persisted %d ticks, want 2", len(ms.batches[0]))
	}

	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(ms.batches) != 2 || len(ms.batches[1]) != 1 {
		t.Fatalf("final flush batches = %v, want a second batch of 1", batchSizes(ms))
	}
	if ms.total() != 3 {
		t.Errorf("persisted %d ticks in total, want 3", ms.total())
	}
}

func TestTrimFlushBoundsWindow(t *testing.T) {
	ms := &memStore{}
	p := newTestPreparer(ms, nil)
	ctx := context.Background()

	if err := p.Process(ctx, contiguousTicks(2500)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Exactly one trim-flush of the oldest 1000 once the window first hits
	// 2000; 1500 remain resident and unflushed.
	if len(ms.batches) != 1 {
		t.Fatalf("trim produced %d flushes, want 1 (sizes %v)", len(ms.batches), batchSizes(ms))
	}
	if len(ms.batches[0]) != 1000 {
		t.Errorf("trim flush persisted %d ticks, want 1000", len(ms.batches[0]))
	}
	if len(p.window) != 1500 {
		t.Errorf("window holds %d ticks after input exhaustion, want 1500", len(p.window))
	}

	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ms.total() != 2500 {
		t.Errorf("persisted %d ticks in total, want 2500", ms.total())
	}
	if len(p.window) != 0 {
		t.Errorf("window holds %d ticks after Flush, want 0", len(p.window))
	}
}

func TestStudyOutputsMergedInOrder(t *testing.T) {
	studies := study.NewRegistry()
	studies.Register(&constantStudy{name: "sma13", value: 1.2})
	studies.Register(&constantStudy{name: "rsi", value: 55})

	ms := &memStore{}
	p := newTestPreparer(ms, studies)
	ctx := context.Background()

	ticks := contiguousTicks(2)
	if err := p.Process(ctx, ticks); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	doc := ms.batches[0][0]
	names := doc.Data.Names()
	want := []string{"timestamp", "open", "high", "low", "close", "sma13", "rsi"}
	if len(names) != len(want) {
		t.Fatalf("document fields = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, names[i], want[i])
		}
	}
	if v, _ := doc.Data.Get("sma13"); v != 1.2 {
		t.Errorf("sma13 = %v, want 1.2", v)
	}

	// Partition tags live beside the data, never inside it.
	if _, ok := doc.Data.Get("testingGroups"); ok {
		t.Error("testingGroups leaked into the feature document")
	}
	if doc.TestingGroups != 1 || doc.ValidationGroups != 2 {
		t.Errorf("partition tags = %d/%d, want 1/2", doc.TestingGroups, doc.ValidationGroups)
	}
	if doc.Symbol != "EURUSD" {
		t.Errorf("symbol = %q, want EURUSD", doc.Symbol)
	}
}

func TestStudyFailureAbortsRun(t *testing.T) {
	studies := study.NewRegistry()
	studies.Register(&failingStudy{})

	ms := &memStore{}
	p := newTestPreparer(ms, studies)

	err := p.Process(context.Background(), contiguousTicks(1))
	if err == nil {
		t.Fatal("Process succeeded despite a failing study")
	}
}

func TestPersistFailureSurfaces(t *testing.T) {
	ms := &memStore{saveErr: errors.New("disk full")}
	p := newTestPreparer(ms, nil)
	ctx := context.Background()

	if err := p.Process(ctx, contiguousTicks(3)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := p.Flush(ctx); err == nil {
		t.Fatal("Flush succeeded despite a failing store")
	}
}

func batchSizes(m *memStore) []int {
	sizes := make([]int, len(m.batches))
	for i, b := range m.batches {
		sizes[i] = len(b)
	}
	return sizes
}
