package llm

import (
	"context"
	"sync"
)

// MockClient is a Client for tests that returns queued responses.
type MockClient struct {
	Responses []PaymentExtraction
	Errors    []error
	Prompts   []string
	mu        sync.Mutex
}

// ExtractPayment returns the next queued response or error.
func (m *MockClient) ExtractPayment(_ context.Context, prompt string) (PaymentExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)

	if call < len(m.Errors) && m.Errors[call] != nil {
		return PaymentExtraction{}, m.Errors[call]
	}
	if len(m.Responses) == 0 {
		return PaymentExtraction{}, nil
	}
	if call < len(m.Responses) {
		return m.Responses[call], nil
	}
	return m.Responses[len(m.Responses)-1], nil
}

// Calls returns how many requests were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
