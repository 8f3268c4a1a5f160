package common

import "errors"

var (
	// ErrInvalidConfig reports a learner, ensemble or splitter parameter out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidData reports a malformed table, misaligned series or bad column reference.
	ErrInvalidData = errors.New("invalid data")
	// ErrEmptyDataset reports training on a table without rows.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrMissingFeature reports a query row without a feature the model references.
	ErrMissingFeature = errors.New("missing feature")
	// ErrNotTrained reports a query against a model that has not been trained.
	ErrNotTrained = errors.New("model not trained")
)
