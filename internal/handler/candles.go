package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultCandleDays = 90
	maxCandleDays     = 3650
)

// GetCandles godoc
// @Summary      Get daily OHLCV candles
// @Description  Returns daily candles for a ticker over the trailing window
// @Tags         candles
// @Produce      json
// @Param        symbol  path   string  true   "Ticker (e.g., AAPL)"
// @Param        days    query  int     false  "Trailing calendar days (default 90, max 3650)"  default(90)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/candles/{symbol} [get]
func (h *Handler) GetCandles(c *gin.Context) {
	if h.candles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	days := defaultCandleDays
	if d := c.Query("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 || n > maxCandleDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 3650"})
			return
		}
		days = n
	}

	to := time.Now().UTC()
	candles, err := h.candles.GetDailyCandles(ctx, symbol, to.AddDate(0, 0, -days), to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"days":    days,
		"candles": candles,
	})
}
