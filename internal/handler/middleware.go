package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"signal-forest/internal/logger"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards the training and prediction routes with the X-API-Key
// header. An empty key leaves the routes open, which config.Load warns about.
func APIKeyAuth(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing X-API-Key header"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
			logger.Warn().
				Str("path", c.FullPath()).
				Str("client_ip", c.ClientIP()).
				Msg("rejected ml request with invalid API key")
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "invalid API key"})
			return
		}
		c.Next()
	}
}
