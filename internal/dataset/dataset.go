// Package dataset loads persisted feature documents into a dense,
// column-indexed numeric matrix.
package dataset

import "forexbt/internal/domain"

// Dataset is a dense row-major matrix of feature values: one row per
// persisted tick in ascending timestamp order, one column per data index
// entry. It is backed by a single contiguous buffer and immutable after
// load.
type Dataset struct {
	rows  int
	cols  int
	data  []float64
	index domain.DataIndex
}

// New allocates a zeroed dataset with one column per index entry.
func New(index domain.DataIndex, rows int) *Dataset {
	cols := len(index)
	return &Dataset{
		rows:  rows,
		cols:  cols,
		data:  make([]float64, rows*cols),
		index: index,
	}
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the number of columns.
func (d *Dataset) Cols() int { return d.cols }

// Row returns row i as a subslice of the shared buffer. Callers must treat
// it as read-only.
func (d *Dataset) Row(i int) []float64 {
	return d.data[i*d.cols : (i+1)*d.cols]
}

// Index returns the feature-name-to-column mapping fixing this dataset's
// layout.
func (d *Dataset) Index() domain.DataIndex { return d.index }
