package chatbot

import (
	"context"
	"sync"

	"complaint-chat/internal/domain"
)

// MockClient permite tests sin llamar a la API real.
type MockClient struct {
	mu sync.Mutex

	Reply    domain.Reply
	Err      error
	RateErr  error
	FAQs     []domain.FAQ
	Category []domain.FAQCategory

	// OnSend, si está definido, reemplaza Reply/Err.
	OnSend func(ctx context.Context, text string, sc domain.SessionContext, history []domain.HistoryEntry) (domain.Reply, error)

	Sent  []SentMessage
	Rated []RatedMessage
}

type SentMessage struct {
	Text    string
	Context domain.SessionContext
	History []domain.HistoryEntry
}

type RatedMessage struct {
	MessageID string
	Rating    domain.Rating
}

func (m *MockClient) SendMessage(ctx context.Context, text string, sc domain.SessionContext, history []domain.HistoryEntry) (domain.Reply, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMessage{Text: text, Context: sc, History: history})
	onSend := m.OnSend
	reply, err := m.Reply, m.Err
	m.mu.Unlock()

	if onSend != nil {
		return onSend(ctx, text, sc, history)
	}
	return reply, err
}

func (m *MockClient) RateMessage(_ context.Context, messageID string, rating domain.Rating, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rated = append(m.Rated, RatedMessage{MessageID: messageID, Rating: rating})
	return m.RateErr
}

func (m *MockClient) FAQCategories(_ context.Context) ([]domain.FAQCategory, error) {
	return m.Category, m.Err
}

func (m *MockClient) FAQsByCategory(_ context.Context, categoryID string) ([]domain.FAQ, error) {
	var out []domain.FAQ
	for _, f := range m.FAQs {
		if f.CategoryID == categoryID {
			out = append(out, f)
		}
	}
	return out, m.Err
}

func (m *MockClient) SearchFAQ(_ context.Context, _ string) ([]domain.FAQ, error) {
	return m.FAQs, m.Err
}

// SentCount devuelve cuántos mensajes se enviaron.
func (m *MockClient) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// RatedSnapshot devuelve una copia de las valoraciones recibidas.
func (m *MockClient) RatedSnapshot() []RatedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RatedMessage(nil), m.Rated...)
}
