package training

import (
	"fmt"
	"strings"

	"signal-forest/internal/config"
	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/bagging"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ml/features"
	"signal-forest/internal/ml/tree"
)

// Config is the full parameter set of one training run. A zero Seed draws
// a fresh seed per run.
type Config struct {
	Symbol          string    `json:"symbol"`
	LookbackDays    int       `json:"lookback_days"`
	SignalThreshold float64   `json:"signal_threshold"`
	Learner         tree.Kind `json:"learner"`
	Bags            int       `json:"bags"`
	LeafSize        int       `json:"leaf_size"`
	MaxDepth        int       `json:"max_depth"`
	Classifier      bool      `json:"classifier"`
	TrainFraction   float64   `json:"train_fraction"`
	Seed            uint64    `json:"seed"`
	Workers         int       `json:"workers"`
	Baseline        bool      `json:"baseline"`
}

func DefaultConfig() Config {
	return Config{
		Symbol:          "AAPL",
		LookbackDays:    335,
		SignalThreshold: features.DefaultSignalThreshold,
		Learner:         tree.KindRandom,
		Bags:            50,
		LeafSize:        1,
		MaxDepth:        5,
		Classifier:      true,
		TrainFraction:   dataset.DefaultTrainFraction,
		Baseline:        true,
	}
}

// FromAppConfig maps the environment config onto run defaults.
func FromAppConfig(c *config.Config) Config {
	return Config{
		Symbol:          c.MLSymbol,
		LookbackDays:    c.MLLookbackDays,
		SignalThreshold: c.MLSignalThreshold,
		Learner:         tree.Kind(c.MLLearner),
		Bags:            c.MLBags,
		LeafSize:        c.MLLeafSize,
		MaxDepth:        c.MLMaxDepth,
		Classifier:      c.MLClassifier,
		TrainFraction:   c.MLTrainFraction,
		Seed:            c.MLSeed,
		Workers:         c.MLWorkers,
		Baseline:        c.MLBaseline,
	}
}

// Target returns the label column the run trains on.
func (c Config) Target() features.Target {
	if c.Classifier {
		return features.TargetSignal
	}
	return features.TargetNextReturn
}

// Ensemble returns the bagging config of the run.
func (c Config) Ensemble() bagging.Config {
	return bagging.Config{
		Kind: c.Learner,
		Bags: c.Bags,
		Tree: tree.Config{
			LeafSize:   c.LeafSize,
			MaxDepth:   c.MaxDepth,
			Classifier: c.Classifier,
		},
		Seed:    c.Seed,
		Workers: c.Workers,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", common.ErrInvalidConfig)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback days must be positive, got %d", common.ErrInvalidConfig, c.LookbackDays)
	}
	if c.SignalThreshold < 0 {
		return fmt.Errorf("%w: signal threshold must not be negative, got %v", common.ErrInvalidConfig, c.SignalThreshold)
	}
	if !(c.TrainFraction > 0 && c.TrainFraction < 1) {
		return fmt.Errorf("%w: train fraction %v outside (0,1)", common.ErrInvalidConfig, c.TrainFraction)
	}
	return c.Ensemble().Validate()
}

// Request overrides parts of the default config. Zero values and nil
// pointers keep the default.
type Request struct {
	Symbol          string   `json:"symbol,omitempty"`
	LookbackDays    int      `json:"lookback_days,omitempty"`
	SignalThreshold *float64 `json:"signal_threshold,omitempty"`
	Learner         string   `json:"learner,omitempty"`
	Bags            int      `json:"bags,omitempty"`
	LeafSize        int      `json:"leaf_size,omitempty"`
	MaxDepth        int      `json:"max_depth,omitempty"`
	Classifier      *bool    `json:"classifier,omitempty"`
	TrainFraction   float64  `json:"train_fraction,omitempty"`
	Seed            *uint64  `json:"seed,omitempty"`
	Baseline        *bool    `json:"baseline,omitempty"`
}

// Apply returns base with the request's overrides.
func (r Request) Apply(base Config) (Config, error) {
	cfg := base
	if s := strings.TrimSpace(r.Symbol); s != "" {
		cfg.Symbol = strings.ToUpper(s)
	}
	if r.LookbackDays != 0 {
		cfg.LookbackDays = r.LookbackDays
	}
	if r.SignalThreshold != nil {
		cfg.SignalThreshold = *r.SignalThreshold
	}
	if r.Learner != "" {
		kind, err := tree.ParseKind(r.Learner)
		if err != nil {
			return Config{}, err
		}
		cfg.Learner = kind
	}
	if r.Bags != 0 {
		cfg.Bags = r.Bags
	}
	if r.LeafSize != 0 {
		cfg.LeafSize = r.LeafSize
	}
	if r.MaxDepth != 0 {
		cfg.MaxDepth = r.MaxDepth
	}
	if r.Classifier != nil {
		cfg.Classifier = *r.Classifier
	}
	if r.TrainFraction != 0 {
		cfg.TrainFraction = r.TrainFraction
	}
	if r.Seed != nil {
		cfg.Seed = *r.Seed
	}
	if r.Baseline != nil {
		cfg.Baseline = *r.Baseline
	}
	return cfg, cfg.Validate()
}
