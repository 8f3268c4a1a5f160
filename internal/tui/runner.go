package tui

import (
	"context"

	"signal-forest/internal/ml/training"
	"signal-forest/internal/ml/tree"
)

type Trainer interface {
	Run(ctx context.Context, req training.Request) (*training.RunResult, error)
}

// ServiceRunner adapts a training service to the menu, overriding only the
// learner kind of the service defaults.
func ServiceRunner(svc Trainer) Runner {
	return func(ctx context.Context, kind tree.Kind) (*Result, error) {
		res, err := svc.Run(ctx, training.Request{Learner: string(kind)})
		if err != nil {
			return nil, err
		}
		return &Result{
			Symbol:    res.Run.Symbol,
			Learner:   tree.Kind(res.Run.Learner),
			Bags:      res.Run.Bags,
			TrainRows: res.Run.TrainRows,
			TestRows:  res.Run.TestRows,
			Report:    res.Report,
		}, nil
	}
}
