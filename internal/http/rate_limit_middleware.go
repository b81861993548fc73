package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"complaint-chat/internal/service"
)

// RateLimitMiddleware limita por usuario autenticado o, si no hay, por IP.
func RateLimitMiddleware(limiter service.RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if claims, ok := GetAuthClaims(c); ok {
			key = "user:" + claims.UserID
		}
		if !limiter.Allow(key) {
			logger.Warn("chatbot rate limit exceeded", zap.String("key", key))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, please slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
