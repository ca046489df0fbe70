package app

import (
	"shopauth/internal/logger"
)

// MockEmailProvider logs instead of sending. Used when SMTP is not
// configured (local development, CI).
type MockEmailProvider struct{}

func (m *MockEmailProvider) SendVerificationEmail(to, token string) error {
	logger.Info("[MOCK EMAIL] verification", "to", to, "token", token)
	return nil
}

func (m *MockEmailProvider) SendPasswordResetEmail(to, token string) error {
	logger.Info("[MOCK EMAIL] password reset", "to", to, "token", token)
	return nil
}

func (m *MockEmailProvider) Close() error { return nil }
