package domain

import "fmt"

// DataIndex maps feature names to their column position in the loaded
// dataset. It is built exactly once, from the field order of the first
// loaded document, and shared read-only afterwards.
type DataIndex map[string]int

// BuildDataIndex derives an index from an ordered list of feature names.
func BuildDataIndex(names []string) DataIndex {
	index := make(DataIndex, len(names))
	for i, name := range names {
		index[name] = i
	}
	return index
}

// Column returns the column position of name, or an error if the feature is
// unknown.
func (d DataIndex) Column(name string) (int, error) {
	i, ok := d[name]
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", name)
	}
	return i, nil
}
