// Package bagging trains a fixed number of tree learners on bootstrap
// resamples of one table and aggregates their predictions.
package bagging

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ml/evaluation"
	"signal-forest/internal/ml/tree"
)

// Config fixes the shape of an ensemble at construction time.
type Config struct {
	Kind tree.Kind
	Bags int
	Tree tree.Config
	// Seed drives every member's bootstrap draw and split choices. Member i
	// uses the stream (Seed, i), so results do not depend on Workers.
	Seed uint64
	// Workers bounds concurrent member builds; 0 means GOMAXPROCS.
	Workers int
}

func DefaultConfig() Config {
	return Config{Kind: tree.KindRandom, Bags: 20, Tree: tree.DefaultConfig()}
}

func (c Config) Validate() error {
	if c.Bags <= 0 {
		return fmt.Errorf("%w: bag count must be positive, got %d", common.ErrInvalidConfig, c.Bags)
	}
	if c.Kind != tree.KindDecision && c.Kind != tree.KindRandom {
		return fmt.Errorf("%w: unknown learner kind %q", common.ErrInvalidConfig, c.Kind)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", common.ErrInvalidConfig, c.Workers)
	}
	return c.Tree.Validate()
}

type member interface {
	Query(rows []dataset.Row) ([]float64, error)
}

// Ensemble is a bag of independently trained trees.
type Ensemble struct {
	cfg     Config
	members []member
}

func New(cfg Config) (*Ensemble, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ensemble{cfg: cfg}, nil
}

func (e *Ensemble) Config() Config { return e.cfg }

// Members returns the number of trained members.
func (e *Ensemble) Members() int { return len(e.members) }

// Tree returns the root of member i, or nil when i is out of range or the
// member is not a tree learner.
func (e *Ensemble) Tree(i int) *tree.Node {
	if i < 0 || i >= len(e.members) {
		return nil
	}
	if l, ok := e.members[i].(*tree.Learner); ok {
		return l.Root()
	}
	return nil
}

func (e *Ensemble) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Train fits Bags members, each on its own resample of t drawn with
// replacement. t is shared read-only across workers.
func (e *Ensemble) Train(ctx context.Context, t *dataset.Table) error {
	if t == nil || t.Len() == 0 {
		return common.ErrEmptyDataset
	}
	members := make([]member, e.cfg.Bags)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i := range members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := e.trainMember(t, uint64(i))
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			members[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.members = members
	return nil
}

func (e *Ensemble) trainMember(t *dataset.Table, stream uint64) (*tree.Learner, error) {
	rng := rand.New(rand.NewPCG(e.cfg.Seed, stream))
	n := t.Len()
	idx := make([]int, n)
	for j := range idx {
		idx[j] = rng.IntN(n)
	}
	bag, err := t.Resample(idx)
	if err != nil {
		return nil, err
	}
	l, err := tree.NewOfKind(e.cfg.Kind, e.cfg.Tree, rng)
	if err != nil {
		return nil, err
	}
	if err := l.Train(bag); err != nil {
		return nil, err
	}
	return l, nil
}

// Predict queries every member and aggregates per row: the mode of the
// member outputs for classifiers (smallest value on ties), their mean for
// regressors.
func (e *Ensemble) Predict(ctx context.Context, rows []dataset.Row) ([]float64, error) {
	if len(e.members) == 0 {
		return nil, common.ErrNotTrained
	}
	votes := make([][]float64, len(e.members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, m := range e.members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := m.Query(rows)
			if err != nil {
				return err
			}
			votes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregate(votes, len(rows), e.cfg.Tree.Classifier), nil
}

// PredictTable predicts every row of t.
func (e *Ensemble) PredictTable(ctx context.Context, t *dataset.Table) ([]float64, error) {
	return e.Predict(ctx, t.Rows())
}

func aggregate(votes [][]float64, n int, classifier bool) []float64 {
	out := make([]float64, n)
	column := make([]float64, len(votes))
	for r := range out {
		for m := range votes {
			column[m] = votes[m][r]
		}
		if classifier {
			out[r] = common.Mode(column)
		} else {
			out[r] = common.Mean(column)
		}
	}
	return out
}

// RegressionStats scores real-valued predictions.
func (e *Ensemble) RegressionStats(yTrue, yPred []float64) (evaluation.RegressionStats, error) {
	return evaluation.Regression(yTrue, yPred)
}

// ClassificationStats scores label-code predictions.
func (e *Ensemble) ClassificationStats(yTrue, yPred []float64) (evaluation.ClassificationStats[float64], error) {
	return evaluation.Classification(yTrue, yPred)
}
