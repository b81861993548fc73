package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio y del cliente de chat.
type Config struct {
	HTTPPort            string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL         string `env:"DATABASE_URL"`
	LLMAPIKey           string `env:"LLM_API_KEY"`
	LLMBaseURL          string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel            string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RedisAddr           string `env:"REDIS_ADDR"`
	RedisPassword       string `env:"REDIS_PASSWORD"`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`
	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	RateLimitPerMinute  int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	ChatbotAPIURL         string `env:"CHATBOT_API_URL" envDefault:"http://localhost:8080"`
	ChatbotTimeoutSeconds int    `env:"CHATBOT_TIMEOUT_SECONDS" envDefault:"30"`
	ChatHistoryDriver     string `env:"CHAT_HISTORY_DRIVER" envDefault:"file"`
	ChatHistoryPath       string `env:"CHAT_HISTORY_PATH" envDefault:".chat_history.json"`
	ChatHistorySlot       string `env:"CHAT_HISTORY_SLOT" envDefault:"chatbot_messages"`
	ChatInactivityMinutes int    `env:"CHAT_INACTIVITY_MINUTES" envDefault:"10"`
	ChatRetentionHours    int    `env:"CHAT_RETENTION_HOURS" envDefault:"24"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ChatbotTimeout devuelve el timeout del transporte; nunca cero.
func (c *Config) ChatbotTimeout() time.Duration {
	if c.ChatbotTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ChatbotTimeoutSeconds) * time.Second
}

func (c *Config) InactivityTimeout() time.Duration {
	if c.ChatInactivityMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.ChatInactivityMinutes) * time.Minute
}

func (c *Config) HistoryRetention() time.Duration {
	if c.ChatRetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ChatRetentionHours) * time.Hour
}

func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}
