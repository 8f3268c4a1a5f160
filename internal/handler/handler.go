package handler

import (
	"context"
	"time"

	"signal-forest/internal/dataset"
	"signal-forest/internal/domain"
	"signal-forest/internal/ml/training"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

type CandleReader interface {
	GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error)
}

type SignalModel interface {
	Run(ctx context.Context, req training.Request) (*training.RunResult, error)
	Predict(ctx context.Context, rows []dataset.Row) (*training.Prediction, error)
	ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error)
	Trained() bool
}

type Handler struct {
	tracer  trace.Tracer
	candles CandleReader
	model   SignalModel
	apiKey  string
}

// New builds the handler. candles and model may be nil; their routes then
// answer 503.
func New(tracer trace.Tracer, candles CandleReader, model SignalModel, apiKey string) *Handler {
	return &Handler{
		tracer:  tracer,
		candles: candles,
		model:   model,
		apiKey:  apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/candles/:symbol", h.GetCandles)

	ml := r.Group("/api/ml", APIKeyAuth(h.apiKey))
	ml.POST("/train", h.TriggerTraining)
	ml.POST("/predict", h.Predict)
	ml.GET("/runs", h.ListRuns)
}
