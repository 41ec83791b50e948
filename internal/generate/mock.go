package generate

import (
	"context"
	"sync"
)

// MockGenerator returns a fixed response and records prompts. For tests and offline use.
type MockGenerator struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator returns a MockGenerator that answers with response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// Generate records prompt and returns the configured response or error.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Prompts returns the prompts received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
