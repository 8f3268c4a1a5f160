// Package boost wraps a gradient-boosted multiclass model used as a baseline
// next to the bagged trees.
package boost

import (
	"fmt"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
)

type TrainOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

type Model struct {
	featureNames []string
	boost        *boo.MultiClass
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       40,
		LearningRate: 0.08,
		MaxDepth:     4,
	}
}

// Train fits a multiclass model on a table whose target holds integral
// class codes.
func Train(t *dataset.Table, opts TrainOptions) (*Model, error) {
	if t == nil || t.Len() == 0 {
		return nil, common.ErrEmptyDataset
	}
	target := t.Target()
	classSet := make(map[int]struct{}, 3)
	labels := make([]int, len(target))
	for i, v := range target {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: boosted baseline needs class codes, got %v", common.ErrInvalidData, v)
		}
		labels[i] = int(v)
		classSet[labels[i]] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, fmt.Errorf("%w: boosted baseline needs at least two classes", common.ErrInvalidData)
	}
	def := DefaultTrainOptions()
	if opts.Rounds <= 0 {
		opts.Rounds = def.Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}

	features := t.Features()
	samples := make([][]float64, t.Len())
	for i := range samples {
		row := t.Row(i)
		samples[i] = make([]float64, len(features))
		for j, f := range features {
			samples[i][j] = row[f]
		}
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	data := &utils.DataBunch{
		Data:   samples,
		Labels: labels,
		Keys:   features,
	}
	model := boo.NewMultiClass(data, o)
	if model == nil {
		return nil, fmt.Errorf("boosted baseline: training produced no model")
	}
	return &Model{featureNames: features, boost: model}, nil
}

// Predict returns the most probable class code per row.
func (m *Model) Predict(rows []dataset.Row) ([]float64, error) {
	if m == nil || m.boost == nil {
		return nil, common.ErrNotTrained
	}
	classes := m.boost.ClassLabels()
	out := make([]float64, len(rows))
	sample := make([]float64, len(m.featureNames))
	for i, row := range rows {
		for j, f := range m.featureNames {
			v, ok := row[f]
			if !ok {
				return nil, fmt.Errorf("%w: row %d lacks %q", common.ErrMissingFeature, i, f)
			}
			sample[j] = v
		}
		probs := m.boost.PredictSingle(sample)
		best := 0
		for k := range probs {
			if probs[k] > probs[best] {
				best = k
			}
		}
		if best < len(classes) {
			out[i] = float64(classes[best])
		} else {
			out[i] = float64(best)
		}
	}
	return out, nil
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.featureNames...)
}
