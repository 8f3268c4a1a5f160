package training

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"signal-forest/internal/dataset"
	"signal-forest/internal/logger"
	"signal-forest/internal/ml/bagging"
	"signal-forest/internal/ml/evaluation"
	"signal-forest/internal/ml/models/boost"
)

// Report holds the held-out scores of a run. Classification and Baseline
// are set for classifier runs, Regression otherwise.
type Report struct {
	Classification *evaluation.ClassificationStats[string] `json:"classification,omitempty"`
	Regression     *evaluation.RegressionStats             `json:"regression,omitempty"`
	Baseline       *evaluation.ClassificationStats[string] `json:"baseline,omitempty"`
}

// Outcome is everything Fit produces.
type Outcome struct {
	Report
	Ensemble *bagging.Ensemble
	// Config is the run config with the seed resolved.
	Config    Config
	TrainRows int
	TestRows  int
	TrainFrom string
	TestTo    string
	TestKeys  []string
	Predicted []float64
}

// Fit splits frame chronologically on target, trains the ensemble on the
// head, and scores it on the tail. encoder decodes class codes for the
// classification report; when nil, codes are reported as numbers.
func Fit(ctx context.Context, frame *dataset.Frame, target string, encoder *dataset.LabelEncoder, cfg Config) (*Outcome, error) {
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if err := cfg.Ensemble().Validate(); err != nil {
		return nil, err
	}

	train, test, err := dataset.Split(frame, target, cfg.TrainFraction)
	if err != nil {
		return nil, err
	}

	ens, err := bagging.New(cfg.Ensemble())
	if err != nil {
		return nil, err
	}
	if err := ens.Train(ctx, train); err != nil {
		return nil, fmt.Errorf("train ensemble: %w", err)
	}
	predicted, err := ens.PredictTable(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("predict test rows: %w", err)
	}

	trainKeys, testKeys := train.Keys(), test.Keys()
	out := &Outcome{
		Ensemble:  ens,
		Config:    cfg,
		TrainRows: train.Len(),
		TestRows:  test.Len(),
		TrainFrom: trainKeys[0],
		TestTo:    testKeys[len(testKeys)-1],
		TestKeys:  testKeys,
		Predicted: predicted,
	}

	if !cfg.Classifier {
		stats, err := ens.RegressionStats(test.Target(), predicted)
		if err != nil {
			return nil, err
		}
		out.Regression = &stats
		return out, nil
	}

	stats, err := classify(test.Target(), predicted, encoder)
	if err != nil {
		return nil, err
	}
	out.Classification = stats

	if cfg.Baseline {
		baseline, err := fitBaseline(train, test, encoder)
		if err != nil {
			logger.Warn().Err(err).Msg("boosted baseline skipped")
		} else {
			out.Baseline = baseline
		}
	}
	return out, nil
}

func fitBaseline(train, test *dataset.Table, encoder *dataset.LabelEncoder) (*evaluation.ClassificationStats[string], error) {
	model, err := boost.Train(train, boost.DefaultTrainOptions())
	if err != nil {
		return nil, err
	}
	predicted, err := model.Predict(test.Rows())
	if err != nil {
		return nil, err
	}
	return classify(test.Target(), predicted, encoder)
}

func classify(yTrue, yPred []float64, encoder *dataset.LabelEncoder) (*evaluation.ClassificationStats[string], error) {
	trueLabels, err := decode(yTrue, encoder)
	if err != nil {
		return nil, err
	}
	predLabels, err := decode(yPred, encoder)
	if err != nil {
		return nil, err
	}
	stats, err := evaluation.Classification(trueLabels, predLabels)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func decode(codes []float64, encoder *dataset.LabelEncoder) ([]string, error) {
	if encoder != nil {
		return encoder.DecodeAll(codes)
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return out, nil
}
