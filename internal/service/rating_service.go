package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/repository"
)

var ErrMissingMessageID = errors.New("message id is required")

const maxFeedbackLength = 1000

type RatingService struct {
	repo   repository.RatingRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewRatingService(repo repository.RatingRepository, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Rate registra la valoración de una respuesta; una nueva valoración reemplaza a la anterior.
func (s *RatingService) Rate(ctx context.Context, messageID, sessionID string, rating domain.Rating, feedback string) (domain.MessageRating, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return domain.MessageRating{}, ErrMissingMessageID
	}
	if !rating.Valid() {
		return domain.MessageRating{}, ErrInvalidRating
	}
	feedback = strings.TrimSpace(feedback)
	if len(feedback) > maxFeedbackLength {
		feedback = feedback[:maxFeedbackLength]
	}

	mr := domain.MessageRating{
		ID:        uuid.NewString(),
		MessageID: messageID,
		SessionID: strings.TrimSpace(sessionID),
		Rating:    rating,
		Feedback:  feedback,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, mr); err != nil {
		return domain.MessageRating{}, fmt.Errorf("create rating: %w", err)
	}
	s.logger.Info("message rated",
		zap.String("message_id", messageID),
		zap.String("rating", string(rating)),
	)
	return mr, nil
}
