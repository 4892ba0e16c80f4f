package gmail

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// MockSource is an in-memory mailbox for tests.
type MockSource struct {
	GetErrors  map[string]error
	ListErr    error
	ProfileErr error
	Email      string
	messages   []*model.EmailMessage
	Queries    []string
	Fetched    []string
	mu         sync.Mutex
}

// NewMockSource creates a mailbox holding msgs, newest first.
func NewMockSource(msgs ...*model.EmailMessage) *MockSource {
	return &MockSource{
		Email:     "payments@example.com",
		messages:  msgs,
		GetErrors: make(map[string]error),
	}
}

// Add appends a message to the mailbox.
func (m *MockSource) Add(msg *model.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// ListMessageIDs returns up to limit ids of stored messages that skip does not reject.
func (m *MockSource) ListMessageIDs(_ context.Context, query string, limit int, skip func(id string) bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	ids := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		if len(ids) == limit {
			break
		}
		if skip != nil && skip(msg.ID) {
			continue
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

// GetMessage returns a copy of the stored message.
func (m *MockSource) GetMessage(_ context.Context, id string) (*model.EmailMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Fetched = append(m.Fetched, id)
	if err := m.GetErrors[id]; err != nil {
		return nil, err
	}
	for _, msg := range m.messages {
		if msg.ID == id {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, common.ExternalServiceError("gmail", fmt.Errorf("message %s not found", id))
}

// Profile returns the configured mailbox address.
func (m *MockSource) Profile(_ context.Context) (string, error) {
	if m.ProfileErr != nil {
		return "", m.ProfileErr
	}
	return m.Email, nil
}

// FetchCount returns how many messages were fetched.
func (m *MockSource) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Fetched)
}
