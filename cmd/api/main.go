package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"complaint-chat/internal/config"
	"complaint-chat/internal/db"
	apihttp "complaint-chat/internal/http"
	"complaint-chat/internal/llm"
	"complaint-chat/internal/repository"
	"complaint-chat/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	faqRepo := repository.NewPgFAQRepository(pool)
	ratingRepo := repository.NewPgRatingRepository(pool)

	var llmClient llm.LLMClient
	if cfg.LLMAPIKey != "" {
		llmClient = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	} else {
		logger.Warn("llm api key not configured, chatbot runs in fallback mode")
	}

	limiter := service.NewMemoryRateLimiter(time.Minute, cfg.RateLimitPerMinute)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, time.Minute, cfg.RateLimitPerMinute)
		}
		cancel()
	}

	var jwtSvc *service.JWTService
	if cfg.JWTSecret != "" {
		jwtSvc = service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL())
	} else {
		logger.Warn("jwt secret not configured, all callers are guests")
	}

	replySvc := service.NewReplyService(faqRepo, llmClient, logger)
	ratingSvc := service.NewRatingService(ratingRepo, logger)
	chatbotHandler := apihttp.NewChatbotHandler(logger, replySvc, ratingSvc)
	router := apihttp.NewRouter(logger, chatbotHandler, jwtSvc, limiter)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
