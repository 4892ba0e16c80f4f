package sheets

import (
	"context"
	"sync"
)

// MockWriter records reports instead of writing them.
type MockWriter struct {
	Err           error
	Reports       []*Report
	SpreadsheetID string
	mu            sync.Mutex
}

// NewMockWriter creates a MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{SpreadsheetID: "mock-spreadsheet"}
}

// Write records the report.
func (m *MockWriter) Write(_ context.Context, report *Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, report)
	if m.Err != nil {
		return "", m.Err
	}
	return m.SpreadsheetID, nil
}
