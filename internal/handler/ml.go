package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/provider"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type predictRequest struct {
	Rows []dataset.Row `json:"rows"`
}

// TriggerTraining godoc
// @Summary      Train the signal ensemble
// @Description  Runs a training cycle with optional overrides and returns the held-out report
// @Tags         ml
// @Accept       json
// @Produce      json
// @Param        request  body  training.Request  false  "Config overrides"
// @Success      200  {object}  training.RunResult
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Security     ApiKeyAuth
// @Router       /api/ml/train [post]
func (h *Handler) TriggerTraining(c *gin.Context) {
	if h.model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ml training service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-training")
	defer span.End()

	var req training.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	res, err := h.model.Run(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("run_id", res.Run.ID))
	c.JSON(http.StatusOK, res)
}

// Predict godoc
// @Summary      Predict with the latest ensemble
// @Description  Scores feature rows with the most recently trained ensemble
// @Tags         ml
// @Accept       json
// @Produce      json
// @Param        request  body  predictRequest  true  "Feature rows"
// @Success      200  {object}  training.Prediction
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Security     ApiKeyAuth
// @Router       /api/ml/predict [post]
func (h *Handler) Predict(c *gin.Context) {
	if h.model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ml training service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.predict")
	defer span.End()

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("rows", len(req.Rows)))

	pred, err := h.model.Predict(ctx, req.Rows)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

// ListRuns godoc
// @Summary      List training runs
// @Description  Returns the most recent training runs, newest first
// @Tags         ml
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 20, max 200)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/ml/runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	if h.model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ml training service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-runs")
	defer span.End()

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := h.model.ListRuns(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidConfig),
		errors.Is(err, common.ErrInvalidData),
		errors.Is(err, common.ErrMissingFeature),
		errors.Is(err, common.ErrEmptyDataset):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotTrained),
		errors.Is(err, training.ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, provider.ErrNoData):
		status = http.StatusNotFound
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}
