package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forest_training_runs_total",
			Help: "Total number of ensemble training runs",
		},
		[]string{"learner", "mode", "status"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forest_training_duration_seconds",
			Help:    "Wall time of a full training run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"learner"},
	)

	TestAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forest_test_accuracy",
			Help: "Held-out accuracy of the latest classifier run",
		},
		[]string{"symbol", "learner"},
	)

	TestRMSE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forest_test_rmse",
			Help: "Held-out RMSE of the latest regressor run",
		},
		[]string{"symbol", "learner"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forest_predictions_total",
			Help: "Total number of served predictions",
		},
		[]string{"label"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forest_candle_cache_lookups_total",
			Help: "Candle cache lookups by result",
		},
		[]string{"result"},
	)

	ProviderBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forest_provider_breaker_state",
			Help: "Provider circuit breaker state (0: closed, 1: half-open, 2: open)",
		},
		[]string{"provider"},
	)
)
