package tree

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
)

// Learner pairs a tree config and split selector with the tree they grow.
type Learner struct {
	cfg      Config
	selector SplitSelector
	root     *Node
	features []string
}

// New returns an untrained learner.
func New(cfg Config, sel SplitSelector) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sel == nil {
		return nil, fmt.Errorf("%w: nil split selector", common.ErrInvalidConfig)
	}
	return &Learner{cfg: cfg, selector: sel}, nil
}

// NewDecisionTree returns a learner that splits on the best correlated feature.
func NewDecisionTree(cfg Config) (*Learner, error) {
	return New(cfg, CorrelationSelector{})
}

// NewRandomTree returns a learner that splits on features drawn from rng.
func NewRandomTree(cfg Config, rng *rand.Rand) (*Learner, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random tree needs a random source", common.ErrInvalidConfig)
	}
	return New(cfg, NewRandomSelector(rng))
}

// NewOfKind builds a learner for kind. rng is only used by random trees.
func NewOfKind(kind Kind, cfg Config, rng *rand.Rand) (*Learner, error) {
	switch kind {
	case KindDecision:
		return NewDecisionTree(cfg)
	case KindRandom:
		return NewRandomTree(cfg, rng)
	default:
		return nil, fmt.Errorf("%w: unknown learner kind %q", common.ErrInvalidConfig, kind)
	}
}

// Train grows the tree from t, replacing any earlier tree.
func (l *Learner) Train(t *dataset.Table) error {
	root, err := Build(t, l.cfg, l.selector)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	root.collectFeatures(seen)
	features := make([]string, 0, len(seen))
	for f := range seen {
		features = append(features, f)
	}
	sort.Strings(features)

	l.root, l.features = root, features
	return nil
}

// Root returns the trained tree, nil before Train.
func (l *Learner) Root() *Node { return l.root }

// Config returns the learner's tree config.
func (l *Learner) Config() Config { return l.cfg }

// Features returns the sorted features the trained tree splits on.
func (l *Learner) Features() []string { return append([]string(nil), l.features...) }

// Query predicts every row. Rows are checked for all referenced features up
// front so a bad row fails before any traversal.
func (l *Learner) Query(rows []dataset.Row) ([]float64, error) {
	if l.root == nil {
		return nil, common.ErrNotTrained
	}
	for i, row := range rows {
		for _, f := range l.features {
			if _, ok := row[f]; !ok {
				return nil, fmt.Errorf("%w: row %d lacks %q", common.ErrMissingFeature, i, f)
			}
		}
	}
	return Query(l.root, rows)
}

// QueryTable predicts every row of t.
func (l *Learner) QueryTable(t *dataset.Table) ([]float64, error) {
	return l.Query(t.Rows())
}

// Query walks root once per row.
func Query(root *Node, rows []dataset.Row) ([]float64, error) {
	if root == nil {
		return nil, common.ErrNotTrained
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		n := root
		for !n.IsLeaf {
			v, ok := row[n.Feature]
			if !ok {
				return nil, fmt.Errorf("%w: row %d lacks %q", common.ErrMissingFeature, i, n.Feature)
			}
			if v <= n.Threshold {
				n = n.Left
			} else {
				n = n.Right
			}
		}
		out[i] = n.Value
	}
	return out, nil
}
