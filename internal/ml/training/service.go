package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"signal-forest/internal/dataset"
	"signal-forest/internal/domain"
	"signal-forest/internal/logger"
	"signal-forest/internal/metrics"
	"signal-forest/internal/ml/bagging"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ml/features"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrRunInProgress is returned when Run is called while another run is
// still training.
var ErrRunInProgress = errors.New("training run already in progress")

type CandleSource interface {
	GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error)
}

type RunStore interface {
	InsertRun(ctx context.Context, run domain.TrainingRun) (*domain.TrainingRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error)
}

// RunResult is the stored run record plus its report.
type RunResult struct {
	Run domain.TrainingRun `json:"run"`
	Report
}

// Prediction is the output of Service.Predict. Labels is set for
// classifier models and Values for regressors.
type Prediction struct {
	Symbol string    `json:"symbol"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

type model struct {
	ensemble *bagging.Ensemble
	encoder  *dataset.LabelEncoder
	symbol   string
}

// Service runs the end-to-end pipeline and serves predictions from the
// latest successful run.
type Service struct {
	tracer   trace.Tracer
	candles  CandleSource
	runs     RunStore
	defaults Config
	now      func() time.Time

	runMu sync.Mutex

	mu     sync.RWMutex
	latest *model
}

func NewService(tracer trace.Tracer, candles CandleSource, runs RunStore, defaults Config) *Service {
	return &Service{
		tracer:   tracer,
		candles:  candles,
		runs:     runs,
		defaults: defaults,
		now:      time.Now,
	}
}

// Defaults returns the config Run starts from.
func (s *Service) Defaults() Config { return s.defaults }

// RunTraining runs with the configured defaults.
func (s *Service) RunTraining(ctx context.Context) (*RunResult, error) {
	return s.Run(ctx, Request{})
}

// Run fetches candles, builds the feature frame, fits and scores an
// ensemble, records the run and keeps the model for Predict.
func (s *Service) Run(ctx context.Context, req Request) (*RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "ml-training.run")
	defer span.End()

	cfg, err := req.Apply(s.defaults)
	if err != nil {
		return nil, err
	}
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	span.SetAttributes(
		attribute.String("symbol", cfg.Symbol),
		attribute.String("learner", string(cfg.Learner)),
		attribute.Int("bags", cfg.Bags),
	)

	start := s.now()
	if cfg.Seed == 0 {
		cfg.Seed = uint64(start.UnixNano())
	}
	run := domain.TrainingRun{
		Symbol:     cfg.Symbol,
		Learner:    string(cfg.Learner),
		Classifier: cfg.Classifier,
		Bags:       cfg.Bags,
		LeafSize:   cfg.LeafSize,
		MaxDepth:   cfg.MaxDepth,
		Seed:       cfg.Seed,
	}

	outcome, encoder, err := s.fit(ctx, cfg, start)
	run.DurationMS = s.now().Sub(start).Milliseconds()
	mode := "regressor"
	if cfg.Classifier {
		mode = "classifier"
	}
	metrics.TrainingDuration.WithLabelValues(string(cfg.Learner)).Observe(float64(run.DurationMS) / 1000)

	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues(string(cfg.Learner), mode, string(domain.RunFailed)).Inc()
		run.Status = domain.RunFailed
		run.Error = err.Error()
		run.TrainFrom, run.TestTo = start, start
		s.record(ctx, run)
		logger.Error().Err(err).Str("symbol", cfg.Symbol).Msg("training run failed")
		return nil, err
	}
	metrics.TrainingRunsTotal.WithLabelValues(string(cfg.Learner), mode, string(domain.RunSucceeded)).Inc()

	run.Status = domain.RunSucceeded
	run.TrainRows, run.TestRows = outcome.TrainRows, outcome.TestRows
	run.TrainFrom = parseKey(outcome.TrainFrom)
	run.TestTo = parseKey(outcome.TestTo)
	if data, err := json.Marshal(outcome.Report); err == nil {
		run.MetricsJSON = string(data)
	}
	if stored := s.record(ctx, run); stored != nil {
		run = *stored
	}

	event := logger.Info().
		Str("symbol", cfg.Symbol).
		Str("learner", string(cfg.Learner)).
		Int("train_rows", run.TrainRows).
		Int("test_rows", run.TestRows).
		Int64("duration_ms", run.DurationMS)
	if c := outcome.Classification; c != nil {
		metrics.TestAccuracy.WithLabelValues(cfg.Symbol, string(cfg.Learner)).Set(c.Accuracy)
		event = event.Float64("accuracy", c.Accuracy).Float64("f1", c.F1)
	}
	if r := outcome.Regression; r != nil {
		metrics.TestRMSE.WithLabelValues(cfg.Symbol, string(cfg.Learner)).Set(r.RMSE)
		event = event.Float64("rmse", r.RMSE).Float64("mae", r.MAE)
	}
	event.Msg("training run finished")

	s.mu.Lock()
	s.latest = &model{ensemble: outcome.Ensemble, encoder: encoder, symbol: cfg.Symbol}
	s.mu.Unlock()

	return &RunResult{Run: run, Report: outcome.Report}, nil
}

func (s *Service) fit(ctx context.Context, cfg Config, now time.Time) (*Outcome, *dataset.LabelEncoder, error) {
	if s.candles == nil {
		return nil, nil, errors.New("no candle source configured")
	}
	to := now.UTC()
	from := to.AddDate(0, 0, -cfg.LookbackDays)
	candles, err := s.candles.GetDailyCandles(ctx, cfg.Symbol, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load candles: %w", err)
	}

	engine := features.NewEngine(cfg.SignalThreshold)
	target := cfg.Target()
	frame, err := engine.BuildFrame(candles, target)
	if err != nil {
		return nil, nil, err
	}

	var encoder *dataset.LabelEncoder
	if cfg.Classifier {
		encoder = engine.Encoder()
	}
	outcome, err := Fit(ctx, frame, target.Column(), encoder, cfg)
	if err != nil {
		return nil, nil, err
	}
	return outcome, encoder, nil
}

func (s *Service) record(ctx context.Context, run domain.TrainingRun) *domain.TrainingRun {
	if s.runs == nil {
		return nil
	}
	stored, err := s.runs.InsertRun(ctx, run)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record training run")
		return nil
	}
	return stored
}

// Trained reports whether a run has produced a model to predict with.
func (s *Service) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest != nil
}

// Predict queries the latest trained ensemble.
func (s *Service) Predict(ctx context.Context, rows []dataset.Row) (*Prediction, error) {
	ctx, span := s.tracer.Start(ctx, "ml-training.predict")
	defer span.End()

	s.mu.RLock()
	m := s.latest
	s.mu.RUnlock()
	if m == nil {
		return nil, common.ErrNotTrained
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to predict", common.ErrInvalidData)
	}

	values, err := m.ensemble.Predict(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := &Prediction{Symbol: m.symbol}
	if m.encoder == nil {
		out.Values = values
		metrics.PredictionsTotal.WithLabelValues("value").Add(float64(len(values)))
		return out, nil
	}
	labels, err := m.encoder.DecodeAll(values)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		metrics.PredictionsTotal.WithLabelValues(l).Inc()
	}
	out.Labels = labels
	return out, nil
}

// ListRuns returns recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	ctx, span := s.tracer.Start(ctx, "ml-training.list-runs")
	defer span.End()

	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

func parseKey(key string) time.Time {
	t, err := time.Parse(time.DateOnly, key)
	if err != nil {
		return time.Time{}
	}
	return t
}
