package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	mu         sync.Mutex
	Response   string
	Err        error
	LastSystem string
	LastPrompt string
	Calls      int
}

func (m *MockClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastSystem = system
	m.LastPrompt = prompt
	return m.Response, m.Err
}
