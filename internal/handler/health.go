package handler

import (
	"net/http"

	"signal-forest/pkg/tracing"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	ModelTrained bool   `json:"model_trained"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and whether a signal model is loaded for predictions
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:       "healthy",
		Service:      tracing.ServiceName,
		Version:      tracing.ServiceVersion,
		ModelTrained: h.model != nil && h.model.Trained(),
	})
}
