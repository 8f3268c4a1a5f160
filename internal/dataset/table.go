// Package dataset holds the tabular inputs of the tree learners: immutable
// numeric tables, keyed frames read from CSV, and the chronological splitter.
package dataset

import (
	"fmt"
	"sort"

	"signal-forest/internal/ml/common"
)

// Row maps feature name to value. It is the prediction input shape.
type Row map[string]float64

// Table is an immutable set of rows over a fixed, ordered feature set plus a
// numeric target. Rows are addressed by ordinal and optionally by key.
type Table struct {
	features []string
	index    map[string]int
	rows     [][]float64
	target   []float64
	keys     []string
}

// NewTable validates and copies its inputs. keys may be nil.
func NewTable(features []string, rows [][]float64, target []float64, keys []string) (*Table, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: table needs at least one feature", common.ErrInvalidData)
	}
	index := make(map[string]int, len(features))
	for i, name := range features {
		if name == "" {
			return nil, fmt.Errorf("%w: feature %d has an empty name", common.ErrInvalidData, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", common.ErrInvalidData, name)
		}
		index[name] = i
	}
	if len(target) != len(rows) {
		return nil, fmt.Errorf("%w: %d targets for %d rows", common.ErrInvalidData, len(target), len(rows))
	}
	if len(keys) != 0 && len(keys) != len(rows) {
		return nil, fmt.Errorf("%w: %d keys for %d rows", common.ErrInvalidData, len(keys), len(rows))
	}

	owned := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(features) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", common.ErrInvalidData, i, len(row), len(features))
		}
		for j, v := range row {
			if !common.Finite(v) {
				return nil, fmt.Errorf("%w: row %d feature %q is not finite", common.ErrInvalidData, i, features[j])
			}
		}
		if !common.Finite(target[i]) {
			return nil, fmt.Errorf("%w: row %d target is not finite", common.ErrInvalidData, i)
		}
		owned[i] = append([]float64(nil), row...)
	}

	t := &Table{
		features: append([]string(nil), features...),
		index:    index,
		rows:     owned,
		target:   append([]float64(nil), target...),
	}
	if len(keys) != 0 {
		t.keys = append([]string(nil), keys...)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Features returns the ordered feature names.
func (t *Table) Features() []string { return append([]string(nil), t.features...) }

// HasFeature reports whether name is one of the table's features.
func (t *Table) HasFeature(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Target returns a copy of the target column.
func (t *Table) Target() []float64 { return append([]float64(nil), t.target...) }

// Keys returns a copy of the row keys, nil when the table is unkeyed.
func (t *Table) Keys() []string {
	if t.keys == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Column returns a copy of the named feature column.
func (t *Table) Column(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown feature %q", common.ErrInvalidData, name)
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Value returns a single cell without copying the row.
func (t *Table) Value(row int, feature string) (float64, bool) {
	j, ok := t.index[feature]
	if !ok || row < 0 || row >= len(t.rows) {
		return 0, false
	}
	return t.rows[row][j], true
}

// TargetAt returns the target of a row.
func (t *Table) TargetAt(row int) float64 { return t.target[row] }

// Row returns row i as a feature map.
func (t *Table) Row(i int) Row {
	out := make(Row, len(t.features))
	for j, name := range t.features {
		out[name] = t.rows[i][j]
	}
	return out
}

// Rows returns every row as a feature map, in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Resample builds a new owned table from the given row ordinals. Ordinals may
// repeat; the result is re-indexed from zero.
func (t *Table) Resample(idx []int) (*Table, error) {
	rows := make([][]float64, len(idx))
	target := make([]float64, len(idx))
	var keys []string
	if t.keys != nil {
		keys = make([]string, len(idx))
	}
	for i, k := range idx {
		if k < 0 || k >= len(t.rows) {
			return nil, fmt.Errorf("%w: resample ordinal %d out of range [0,%d)", common.ErrInvalidData, k, len(t.rows))
		}
		rows[i] = append([]float64(nil), t.rows[k]...)
		target[i] = t.target[k]
		if keys != nil {
			keys[i] = t.keys[k]
		}
	}
	return &Table{
		features: append([]string(nil), t.features...),
		index:    t.index,
		rows:     rows,
		target:   target,
		keys:     keys,
	}, nil
}

// SortedFeatures returns the feature names in lexical order.
func (t *Table) SortedFeatures() []string {
	out := t.Features()
	sort.Strings(out)
	return out
}
