package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"signal-forest/internal/ml/common"
)

// KeyColumn is the CSV header of the row key column.
const KeyColumn = "Date"

// Frame is an ordered, keyed set of named numeric columns. The features
// engine emits frames and the splitter turns them into tables.
type Frame struct {
	keys    []string
	columns []string
	index   map[string]int
	data    [][]float64 // data[col][row]
}

// NewFrame creates an empty frame over the given columns.
func NewFrame(columns []string) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" || c == KeyColumn {
			return nil, fmt.Errorf("%w: invalid column name %q", common.ErrInvalidData, c)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", common.ErrInvalidData, c)
		}
		index[c] = i
	}
	return &Frame{
		columns: append([]string(nil), columns...),
		index:   index,
		data:    make([][]float64, len(columns)),
	}, nil
}

// Append adds one keyed row with a value per column, in column order.
func (f *Frame) Append(key string, values ...float64) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("%w: row %q has %d values, want %d", common.ErrInvalidData, key, len(values), len(f.columns))
	}
	f.keys = append(f.keys, key)
	for i, v := range values {
		f.data[i] = append(f.data[i], v)
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.keys) }

// Columns returns the ordered column names.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// Keys returns a copy of the row keys.
func (f *Frame) Keys() []string { return append([]string(nil), f.keys...) }

// Column returns a copy of a named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), f.data[i]...), true
}

// DropNonFinite returns a frame without the rows holding a NaN or Inf value.
func (f *Frame) DropNonFinite() *Frame {
	out, _ := NewFrame(f.columns)
	values := make([]float64, len(f.columns))
	for r := range f.keys {
		keep := true
		for c := range f.columns {
			values[c] = f.data[c][r]
			if !common.Finite(values[c]) {
				keep = false
				break
			}
		}
		if keep {
			_ = out.Append(f.keys[r], values...)
		}
	}
	return out
}

// WriteCSV writes the frame with a leading key column.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{KeyColumn}, f.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for r, key := range f.keys {
		record[0] = key
		for c := range f.columns {
			record[c+1] = strconv.FormatFloat(f.data[c][r], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a frame written by WriteCSV. A first column named Date is
// used as the row key; otherwise rows are keyed by ordinal. Empty cells read
// as NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %v", common.ErrInvalidData, err)
	}
	keyed := len(header) > 0 && header[0] == KeyColumn
	columns := header
	if keyed {
		columns = header[1:]
	}
	f, err := NewFrame(columns)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(columns))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", common.ErrInvalidData, line, err)
		}
		key := strconv.Itoa(f.Len())
		cells := record
		if keyed {
			key, cells = record[0], record[1:]
		}
		for i, cell := range cells {
			if cell == "" {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: csv line %d column %q: %v", common.ErrInvalidData, line, columns[i], err)
			}
			values[i] = v
		}
		if err := f.Append(key, values...); err != nil {
			return nil, err
		}
	}
	return f, nil
}
