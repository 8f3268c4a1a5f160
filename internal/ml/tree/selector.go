package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
)

// Subset is the view of a table a node is grown from: the table plus the
// ordinals of the rows that reached the node.
type Subset struct {
	table *dataset.Table
	rows  []int
}

// NewSubset returns a view over the given rows of t.
func NewSubset(t *dataset.Table, rows []int) *Subset {
	return &Subset{table: t, rows: rows}
}

func (s *Subset) Len() int { return len(s.rows) }

// Features returns the feature names in table order.
func (s *Subset) Features() []string { return s.table.Features() }

// Column returns the values of a feature over the subset rows.
func (s *Subset) Column(name string) []float64 {
	out := make([]float64, len(s.rows))
	for i, r := range s.rows {
		out[i], _ = s.table.Value(r, name)
	}
	return out
}

// Target returns the target values over the subset rows.
func (s *Subset) Target() []float64 {
	out := make([]float64, len(s.rows))
	for i, r := range s.rows {
		out[i] = s.table.TargetAt(r)
	}
	return out
}

// SplitSelector chooses the feature and threshold of an internal node.
type SplitSelector interface {
	SelectSplit(s *Subset) (feature string, threshold float64)
}

// CorrelationSelector picks the feature whose Pearson correlation with the
// target has the largest magnitude. Ties go to the alphabetically first name
// and a NaN correlation ranks below every real one. The threshold is the
// median of the chosen column.
type CorrelationSelector struct{}

func (CorrelationSelector) SelectSplit(s *Subset) (string, float64) {
	features := s.Features()
	sort.Strings(features)
	target := s.Target()

	best, bestScore := features[0], math.Inf(-1)
	var bestCol []float64
	for _, f := range features {
		col := s.Column(f)
		score := math.Abs(stat.Correlation(col, target, nil))
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		if bestCol == nil || score > bestScore {
			best, bestScore, bestCol = f, score, col
		}
	}
	return best, common.Median(bestCol)
}

// RandomSelector draws the split feature uniformly from rng and thresholds
// at the median of that column. It is not safe for concurrent use since
// rand.Rand is not.
type RandomSelector struct {
	rng *rand.Rand
}

func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	return &RandomSelector{rng: rng}
}

func (r *RandomSelector) SelectSplit(s *Subset) (string, float64) {
	features := s.Features()
	f := features[r.rng.IntN(len(features))]
	return f, common.Median(s.Column(f))
}
