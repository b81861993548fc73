package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"complaint-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del chatbot.
func NewRouter(
	logger *zap.Logger,
	chatbotH *ChatbotHandler,
	jwtSvc *service.JWTService,
	limiter service.RateLimiter,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", chatbotH.Health)

	chatbot := r.Group("/chatbot", OptionalJWTMiddleware(jwtSvc))
	chatbot.POST("/message", RateLimitMiddleware(limiter, logger), chatbotH.PostMessage)
	chatbot.POST("/rate", chatbotH.RateMessage)

	faq := chatbot.Group("/faq")
	faq.GET("/categories", chatbotH.FAQCategories)
	faq.GET("/search", chatbotH.SearchFAQ)
	faq.GET("/:categoryId", chatbotH.FAQsByCategory)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
