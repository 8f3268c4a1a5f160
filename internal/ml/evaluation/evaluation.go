// Package evaluation scores predictions against held-out targets.
package evaluation

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	golearn "github.com/sjwhitworth/golearn/evaluation"

	"signal-forest/internal/ml/common"
)

// RegressionStats summarises real-valued predictions.
type RegressionStats struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	N    int     `json:"n"`
}

// ClassStats holds the one-vs-rest scores of a single label.
type ClassStats[T cmp.Ordered] struct {
	Label     T       `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationStats summarises label predictions. Precision, Recall and F1
// are support-weighted averages of the per-class scores.
type ClassificationStats[T cmp.Ordered] struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Labels    []T             `json:"labels"`
	Confusion [][]int         `json:"confusion"`
	PerClass  []ClassStats[T] `json:"per_class"`
	N         int             `json:"n"`
}

func checkAligned(nTrue, nPred int) error {
	if nTrue == 0 {
		return fmt.Errorf("%w: no predictions to score", common.ErrInvalidData)
	}
	if nTrue != nPred {
		return fmt.Errorf("%w: %d targets vs %d predictions", common.ErrInvalidData, nTrue, nPred)
	}
	return nil
}

// Regression computes RMSE and MAE.
func Regression(yTrue, yPred []float64) (RegressionStats, error) {
	if err := checkAligned(len(yTrue), len(yPred)); err != nil {
		return RegressionStats{}, err
	}
	var sq, abs float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sq += d * d
		abs += math.Abs(d)
	}
	n := float64(len(yTrue))
	return RegressionStats{RMSE: math.Sqrt(sq / n), MAE: abs / n, N: len(yTrue)}, nil
}

// ConfusionMatrix counts (true, predicted) pairs. Rows follow the true label
// and columns the predicted label, both in the order of the returned labels,
// which are the sorted union of both inputs.
func ConfusionMatrix[T cmp.Ordered](yTrue, yPred []T) ([]T, [][]int, error) {
	if err := checkAligned(len(yTrue), len(yPred)); err != nil {
		return nil, nil, err
	}
	labels := append(slices.Clone(yTrue), yPred...)
	slices.Sort(labels)
	labels = slices.Compact(labels)

	pos := make(map[T]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}
	m := make([][]int, len(labels))
	for i := range m {
		m[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		m[pos[yTrue[i]]][pos[yPred[i]]]++
	}
	return labels, m, nil
}

// Classification computes accuracy and weighted precision, recall and F1.
// A class with no predicted (or no true) members scores 0 precision (or
// recall) instead of NaN.
func Classification[T cmp.Ordered](yTrue, yPred []T) (ClassificationStats[T], error) {
	labels, m, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return ClassificationStats[T]{}, err
	}

	n := len(yTrue)
	cm := toGolearn(m)
	stats := ClassificationStats[T]{
		Labels:    labels,
		Confusion: m,
		N:         n,
		Accuracy:  golearn.GetAccuracy(cm),
	}

	for i, label := range labels {
		key := classKey(i)
		support := 0
		for _, c := range m[i] {
			support += c
		}
		cs := ClassStats[T]{
			Label:     label,
			Precision: orZero(golearn.GetPrecision(key, cm)),
			Recall:    orZero(golearn.GetRecall(key, cm)),
			F1:        orZero(golearn.GetF1Score(key, cm)),
			Support:   support,
		}
		stats.PerClass = append(stats.PerClass, cs)

		w := float64(support) / float64(n)
		stats.Precision += w * cs.Precision
		stats.Recall += w * cs.Recall
		stats.F1 += w * cs.F1
	}
	return stats, nil
}

// toGolearn keys a square count matrix by label position. Every row holds
// every column so false positives of never-true labels are still counted.
func toGolearn(m [][]int) golearn.ConfusionMatrix {
	cm := make(golearn.ConfusionMatrix, len(m))
	for i, row := range m {
		inner := make(map[string]int, len(row))
		for j, c := range row {
			inner[classKey(j)] = c
		}
		cm[classKey(i)] = inner
	}
	return cm
}

func classKey(i int) string { return strconv.Itoa(i) }

func orZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
