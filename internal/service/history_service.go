package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/repository"
)

// DefaultHistoryRetention es la antigüedad máxima de un mensaje restaurado.
const DefaultHistoryRetention = 24 * time.Hour

// HistoryService espeja el transcript en un HistoryStore.
type HistoryService struct {
	store     repository.HistoryStore
	retention time.Duration
	logger    *zap.Logger
}

func NewHistoryService(store repository.HistoryStore, retention time.Duration, logger *zap.Logger) *HistoryService {
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// Load restaura el transcript descartando lo que tenga retention o más de
// antigüedad. Un blob corrupto se trata como historial vacío.
func (s *HistoryService) Load(ctx context.Context, now time.Time) []domain.Message {
	if s == nil || s.store == nil {
		return []domain.Message{}
	}

	blob, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("load chat history failed", zap.Error(err))
		return []domain.Message{}
	}
	if len(blob) == 0 {
		return []domain.Message{}
	}

	var stored []domain.Message
	if err := json.Unmarshal(blob, &stored); err != nil {
		s.logger.Warn("chat history corrupted, starting empty", zap.Error(err))
		return []domain.Message{}
	}

	cutoff := now.Add(-s.retention)
	kept := make([]domain.Message, 0, len(stored))
	for _, msg := range stored {
		if msg.Timestamp.After(cutoff) {
			kept = append(kept, msg)
		}
	}
	if dropped := len(stored) - len(kept); dropped > 0 {
		s.logger.Debug("dropped expired chat messages", zap.Int("count", dropped))
	}
	return kept
}

// Save sobrescribe el slot con el transcript completo. Un transcript vacío no se escribe.
func (s *HistoryService) Save(ctx context.Context, messages []domain.Message) error {
	if s == nil || s.store == nil || len(messages) == 0 {
		return nil
	}
	blob, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *HistoryService) Clear(ctx context.Context) error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
