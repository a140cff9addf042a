// Package domain defines the core data types shared across the optimizer:
// ticks, persisted feature documents, the data index, and strategy
// configurations.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Tick is one timestamped market observation plus any derived feature
// values. Fields keep their insertion order, which fixes the layout of the
// persisted feature document and therefore the column order of the loaded
// dataset. Every tick prepared for the same symbol must carry the same
// fields in the same order.
type Tick struct {
	names  []string
	values []float64
	pos    map[string]int
}

// NewTick returns an empty tick.
func NewTick() *Tick {
	return &Tick{pos: make(map[string]int)}
}

// Set stores value under name. A new name is appended after all existing
// fields; an existing name is updated in place.
func (t *Tick) Set(name string, value float64) {
	if i, ok := t.pos[name]; ok {
		t.values[i] = value
		return
	}
	t.pos[name] = len(t.names)
	t.names = append(t.names, name)
	t.values = append(t.values, value)
}

// Get returns the value stored under name and whether it is present.
func (t *Tick) Get(name string) (float64, bool) {
	i, ok := t.pos[name]
	if !ok {
		return 0, false
	}
	return t.values[i], true
}

// Delete removes name from the tick. Remaining fields keep their relative
// order.
func (t *Tick) Delete(name string) {
	i, ok := t.pos[name]
	if !ok {
		return
	}
	t.names = append(t.names[:i], t.names[i+1:]...)
	t.values = append(t.values[:i], t.values[i+1:]...)
	delete(t.pos, name)
	for j := i; j < len(t.names); j++ {
		t.pos[t.names[j]] = j
	}
}

// Names returns the field names in insertion order. The returned slice is
// owned by the tick and must not be modified.
func (t *Tick) Names() []string {
	return t.names
}

// Values returns the field values in insertion order, aligned with Names.
// The returned slice is owned by the tick and must not be modified.
func (t *Tick) Values() []float64 {
	return t.values
}

// Len returns the number of fields.
func (t *Tick) Len() int {
	return len(t.names)
}

// MarshalJSON encodes the tick as a JSON object whose key order is the
// field insertion order.
func (t *Tick) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(strconv.AppendFloat(nil, t.values[i], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseTick decodes a JSON feature object into a Tick, preserving the
// document's key order.
func ParseTick(data []byte) (*Tick, error) {
	t := NewTick()
	err := jsonparser.ObjectEach(data, func(key, value []byte, valueType jsonparser.ValueType, _ int) error {
		if valueType != jsonparser.Number {
			return fmt.Errorf("field %q: expected number, got %s", key, valueType)
		}
		v, perr := jsonparser.ParseFloat(value)
		if perr != nil {
			return fmt.Errorf("field %q: %w", key, perr)
		}
		t.Set(string(key), v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Document is the persisted shape of one enriched tick: the partition tags
// sit alongside the feature data, never inside it.
type Document struct {
	Symbol           string
	TestingGroups    int
	ValidationGroups int
	Data             *Tick
}

// Timestamp returns the document's timestamp feature, or an error if the
// feature data does not carry one.
func (d *Document) Timestamp() (float64, error) {
	ts, ok := d.Data.Get("timestamp")
	if !ok {
		return 0, fmt.Errorf("document for %s has no timestamp field", d.Symbol)
	}
	return ts, nil
}
