package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"signal-forest/internal/ml/common"
)

func sampleFrame(t *testing.T, n int) *Frame {
	t.Helper()
	f, err := NewFrame([]string{"X", "Y", "Signal"})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for i := 0; i < n; i++ {
		if err := f.Append(fmt.Sprintf("2024-01-%02d", i+1), float64(i), float64(i*i), float64(i%3)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return f
}

func TestNewTableValidation(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		features []string
		rows     [][]float64
		target   []float64
		keys     []string
	}{
		{name: "no features", features: nil, rows: nil, target: nil},
		{name: "duplicate feature", features: []string{"a", "a"}, rows: [][]float64{{1, 2}}, target: []float64{1}},
		{name: "short row", features: []string{"a", "b"}, rows: [][]float64{{1}}, target: []float64{1}},
		{name: "target length", features: []string{"a"}, rows: [][]float64{{1}}, target: []float64{1, 2}},
		{name: "nan value", features: []string{"a"}, rows: [][]float64{{nan}}, target: []float64{1}},
		{name: "key length", features: []string{"a"}, rows: [][]float64{{1}}, target: []float64{1}, keys: []string{"x", "y"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.features, tc.rows, tc.target, tc.keys)
			if !errors.Is(err, common.ErrInvalidData) {
				t.Fatalf("expected ErrInvalidData, got %v", err)
			}
		})
	}
}

func TestTableCopiesInputs(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	tbl, err := NewTable([]string{"a", "b"}, rows, []float64{0, 1}, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	rows[0][0] = 99
	col, _ := tbl.Column("a")
	if col[0] != 1 {
		t.Fatalf("table aliased caller rows: %v", col)
	}
	col[1] = 42
	if v, _ := tbl.Value(1, "a"); v != 3 {
		t.Fatalf("Column returned internal storage")
	}
}

func TestResampleRepeatsAndReindexes(t *testing.T) {
	tbl, err := NewTable([]string{"a"}, [][]float64{{10}, {20}, {30}}, []float64{1, 2, 3}, []string{"d1", "d2", "d3"})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	bag, err := tbl.Resample([]int{2, 2, 0})
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if bag.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", bag.Len())
	}
	if got := bag.Target(); got[0] != 3 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("unexpected resampled target %v", got)
	}
	if keys := bag.Keys(); keys[0] != "d3" || keys[2] != "d1" {
		t.Fatalf("unexpected resampled keys %v", keys)
	}
	if _, err := tbl.Resample([]int{3}); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for out of range ordinal, got %v", err)
	}
}

func TestSplitIsPositional(t *testing.T) {
	f := sampleFrame(t, 10)
	train, test, err := Split(f, "Signal", DefaultTrainFraction)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if train.Len() != 8 || test.Len() != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", train.Len(), test.Len())
	}
	if train.HasFeature("Signal") || test.HasFeature("Signal") {
		t.Fatal("target column leaked into features")
	}
	if keys := test.Keys(); keys[0] != "2024-01-09" || keys[1] != "2024-01-10" {
		t.Fatalf("test rows are not the tail: %v", keys)
	}
	if x, _ := train.Value(7, "X"); x != 7 {
		t.Fatalf("train order changed, row 7 X = %v", x)
	}
}

func TestSplitErrors(t *testing.T) {
	f := sampleFrame(t, 3)
	if _, _, err := Split(f, "Signal", 1); !errors.Is(err, common.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, _, err := Split(f, "Missing", 0.5); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for missing target, got %v", err)
	}
	if _, _, err := Split(f, "Signal", 0.2); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for empty train, got %v", err)
	}
}

func TestCSVRoundTripKeepsKeys(t *testing.T) {
	f := sampleFrame(t, 4)
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Date,X,Y,Signal\n") {
		t.Fatalf("unexpected header: %q", buf.String())
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got.Len() != 4 || got.Keys()[3] != "2024-01-04" {
		t.Fatalf("unexpected frame: len=%d keys=%v", got.Len(), got.Keys())
	}
	y, _ := got.Column("Y")
	if y[3] != 9 {
		t.Fatalf("expected Y[3]=9, got %v", y[3])
	}
}

func TestReadCSVEmptyCellsDropped(t *testing.T) {
	in := "Date,A,B\n2024-01-01,,1\n2024-01-02,2,3\n"
	f, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	clean := f.DropNonFinite()
	if clean.Len() != 1 || clean.Keys()[0] != "2024-01-02" {
		t.Fatalf("expected only the complete row, got %v", clean.Keys())
	}
}

func TestLabelEncoderSortedOrder(t *testing.T) {
	enc := NewLabelEncoder([]string{"S", "H", "B", "S"})
	codes, err := enc.EncodeAll([]string{"B", "H", "S"})
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if codes[0] != 0 || codes[1] != 1 || codes[2] != 2 {
		t.Fatalf("unexpected codes %v", codes)
	}
	if l, _ := enc.Decode(2); l != "S" {
		t.Fatalf("expected S, got %s", l)
	}
	if _, err := enc.Decode(1.5); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for fractional code, got %v", err)
	}
	if _, err := enc.Encode("X"); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for unknown label, got %v", err)
	}
}
