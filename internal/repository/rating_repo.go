package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"complaint-chat/internal/domain"
)

type RatingRepository interface {
	Create(ctx context.Context, rating domain.MessageRating) error
}

type PgRatingRepository struct {
	pool *pgxpool.Pool
}

func NewPgRatingRepository(pool *pgxpool.Pool) *PgRatingRepository {
	return &PgRatingRepository{pool: pool}
}

// Create inserta o reemplaza la valoración de un mensaje (gana la última).
func (r *PgRatingRepository) Create(ctx context.Context, rating domain.MessageRating) error {
	const query = `
		INSERT INTO message_ratings (id, message_id, session_id, rating, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO UPDATE
		SET rating = EXCLUDED.rating, feedback = EXCLUDED.feedback, created_at = EXCLUDED.created_at
	`

	var sessionID interface{}
	if rating.SessionID != "" {
		sessionID = rating.SessionID
	}

	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.MessageID,
		sessionID,
		string(rating.Rating),
		rating.Feedback,
		rating.CreatedAt,
	)
	return err
}
