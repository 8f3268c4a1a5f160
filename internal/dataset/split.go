package dataset

import (
	"fmt"
	"math"

	"signal-forest/internal/ml/common"
)

// DefaultTrainFraction is the share of rows that go to the training table.
const DefaultTrainFraction = 0.8

// Split partitions a frame positionally: the first floor(N*trainFraction)
// rows train, the rest test. The target column is removed from the feature
// set of both tables. No shuffling happens, so the test rows always follow
// the training rows in time.
func Split(f *Frame, target string, trainFraction float64) (train, test *Table, err error) {
	if !(trainFraction > 0 && trainFraction < 1) {
		return nil, nil, fmt.Errorf("%w: train fraction %v outside (0,1)", common.ErrInvalidConfig, trainFraction)
	}
	ti, ok := f.index[target]
	if !ok {
		return nil, nil, fmt.Errorf("%w: target column %q not found", common.ErrInvalidData, target)
	}

	n := f.Len()
	cut := int(math.Floor(float64(n) * trainFraction))
	if cut == 0 || cut == n {
		return nil, nil, fmt.Errorf("%w: %d rows at fraction %v leave an empty partition", common.ErrInvalidData, n, trainFraction)
	}

	features := make([]string, 0, len(f.columns)-1)
	cols := make([]int, 0, len(f.columns)-1)
	for i, c := range f.columns {
		if i == ti {
			continue
		}
		features = append(features, c)
		cols = append(cols, i)
	}

	build := func(from, to int) (*Table, error) {
		rows := make([][]float64, 0, to-from)
		for r := from; r < to; r++ {
			row := make([]float64, len(cols))
			for j, c := range cols {
				row[j] = f.data[c][r]
			}
			rows = append(rows, row)
		}
		return NewTable(features, rows, f.data[ti][from:to], f.keys[from:to])
	}

	if train, err = build(0, cut); err != nil {
		return nil, nil, err
	}
	if test, err = build(cut, n); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
