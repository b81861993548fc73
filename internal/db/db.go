package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"complaint-chat/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS faq_categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS faqs (
		id          TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES faq_categories(id) ON DELETE CASCADE,
		question    TEXT NOT NULL,
		answer      TEXT NOT NULL,
		keywords    TEXT[] NOT NULL DEFAULT '{}',
		position    INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS faqs_category_idx ON faqs (category_id, position)`,
	`CREATE TABLE IF NOT EXISTS message_ratings (
		id         UUID PRIMARY KEY,
		message_id TEXT NOT NULL UNIQUE,
		session_id TEXT,
		rating     TEXT NOT NULL CHECK (rating IN ('up', 'down')),
		feedback   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema crea las tablas del chatbot si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
