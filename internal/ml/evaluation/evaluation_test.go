package evaluation

import (
	"errors"
	"math"
	"slices"
	"testing"

	"signal-forest/internal/ml/common"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestConfusionMatrixSortedAxes(t *testing.T) {
	labels, m, err := ConfusionMatrix([]string{"B", "S", "B"}, []string{"B", "B", "B"})
	if err != nil {
		t.Fatalf("ConfusionMatrix: %v", err)
	}
	if !slices.Equal(labels, []string{"B", "S"}) {
		t.Fatalf("unexpected labels %v", labels)
	}
	want := [][]int{{2, 0}, {1, 0}}
	for i := range want {
		if !slices.Equal(m[i], want[i]) {
			t.Fatalf("row %d = %v, want %v", i, m[i], want[i])
		}
	}
}

func TestClassificationWeightedScores(t *testing.T) {
	stats, err := Classification([]string{"B", "S", "B"}, []string{"B", "B", "B"})
	if err != nil {
		t.Fatalf("Classification: %v", err)
	}
	if !approx(stats.Accuracy, 2.0/3) {
		t.Fatalf("accuracy = %v", stats.Accuracy)
	}
	// B: precision 2/3, recall 1, support 2. S: never predicted, scores 0.
	if !approx(stats.Precision, (2.0/3)*(2.0/3)) {
		t.Fatalf("precision = %v", stats.Precision)
	}
	if !approx(stats.Recall, 2.0/3) {
		t.Fatalf("recall = %v", stats.Recall)
	}
	if !approx(stats.F1, (2.0/3)*0.8) {
		t.Fatalf("f1 = %v", stats.F1)
	}
	if stats.PerClass[1].Label != "S" || stats.PerClass[1].Precision != 0 {
		t.Fatalf("unexpected S stats %+v", stats.PerClass[1])
	}
}

func TestClassificationPerfect(t *testing.T) {
	y := []float64{0, 1, 2, 2, 1}
	stats, err := Classification(y, y)
	if err != nil {
		t.Fatalf("Classification: %v", err)
	}
	if stats.Accuracy != 1 || !approx(stats.F1, 1) || stats.N != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestClassificationPredictedOnlyLabel(t *testing.T) {
	// H is predicted once but never true: it must still count as a false
	// positive against B's column and score 0 instead of NaN.
	stats, err := Classification([]string{"B", "B", "S"}, []string{"B", "H", "S"})
	if err != nil {
		t.Fatalf("Classification: %v", err)
	}
	if !slices.Equal(stats.Labels, []string{"B", "H", "S"}) {
		t.Fatalf("unexpected labels %v", stats.Labels)
	}
	h := stats.PerClass[1]
	if h.Precision != 0 || h.Recall != 0 || h.F1 != 0 || h.Support != 0 {
		t.Fatalf("unexpected H stats %+v", h)
	}
	b := stats.PerClass[0]
	if !approx(b.Precision, 1) || !approx(b.Recall, 0.5) {
		t.Fatalf("unexpected B stats %+v", b)
	}
	for _, v := range []float64{stats.Accuracy, stats.Precision, stats.Recall, stats.F1} {
		if math.IsNaN(v) {
			t.Fatalf("NaN in stats %+v", stats)
		}
	}
	if !approx(stats.Accuracy, 2.0/3) {
		t.Fatalf("accuracy = %v", stats.Accuracy)
	}
}

func TestRegression(t *testing.T) {
	stats, err := Regression([]float64{1, 2, 3}, []float64{1, 4, 0})
	if err != nil {
		t.Fatalf("Regression: %v", err)
	}
	if !approx(stats.MAE, 5.0/3) || !approx(stats.RMSE, math.Sqrt(13.0/3)) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMisalignedInput(t *testing.T) {
	if _, err := Regression([]float64{1}, []float64{1, 2}); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if _, err := Classification([]string{}, []string{}); !errors.Is(err, common.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for empty input, got %v", err)
	}
}
