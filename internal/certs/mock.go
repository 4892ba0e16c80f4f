package certs

import "crypto/tls"

// MockManager is a Manager for tests.
type MockManager struct {
	GetError     error
	Certificate  tls.Certificate
	GetCallCount int
	Exists       bool
}

// GetOrCreateCertificate returns the configured certificate or error.
func (m *MockManager) GetOrCreateCertificate() (tls.Certificate, error) {
	m.GetCallCount++
	if m.GetError != nil {
		return tls.Certificate{}, m.GetError
	}
	return m.Certificate, nil
}

// CertificateExists returns the configured state.
func (m *MockManager) CertificateExists() (bool, error) {
	return m.Exists, nil
}
