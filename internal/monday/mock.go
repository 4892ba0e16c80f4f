package monday

import (
	"context"
	"fmt"
	"sync"
)

// MockBoardClient records board writes for tests.
type MockBoardClient struct {
	CreateFunc func(boardID, groupID, name string, values map[string]any) (string, error)
	UpdateFunc func(boardID, itemID string, values map[string]any) error
	Created    []MockItem
	Updated    []MockItem
	nextID     int
	mu         sync.Mutex
}

// MockItem is one recorded write.
type MockItem struct {
	Values  map[string]any
	BoardID string
	GroupID string
	ItemID  string
	Name    string
}

// CreateItem records the call and returns a sequential id.
func (m *MockBoardClient) CreateItem(_ context.Context, boardID, groupID, name string, values map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateFunc != nil {
		id, err := m.CreateFunc(boardID, groupID, name, values)
		if err != nil {
			return "", err
		}
		m.Created = append(m.Created, MockItem{BoardID: boardID, GroupID: groupID, ItemID: id, Name: name, Values: values})
		return id, nil
	}

	m.nextID++
	id := fmt.Sprintf("item-%d", m.nextID)
	m.Created = append(m.Created, MockItem{BoardID: boardID, GroupID: groupID, ItemID: id, Name: name, Values: values})
	return id, nil
}

// UpdateItem records the call.
func (m *MockBoardClient) UpdateItem(_ context.Context, boardID, itemID string, values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(boardID, itemID, values); err != nil {
			return err
		}
	}
	m.Updated = append(m.Updated, MockItem{BoardID: boardID, ItemID: itemID, Values: values})
	return nil
}

// Counts returns the number of creates and updates.
func (m *MockBoardClient) Counts() (created, updated int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created), len(m.Updated)
}
