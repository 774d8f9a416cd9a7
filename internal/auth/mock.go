package auth

import (
	"context"
	"strings"
	"time"
)

// MockToken is the static token the mock provider issues.
const MockToken = "mock-token-techtranslator"

// MockProvider is the offline identity strategy: any non-empty credentials
// pass, registration confirms with any code, and validation only checks the
// static token. Selected via identity.mode "mock"; useful against the dev
// server, which never verifies tokens.
type MockProvider struct {
	pending map[string]bool
}

func NewMockProvider() *MockProvider {
	return &MockProvider{pending: make(map[string]bool)}
}

func (m *MockProvider) Login(_ context.Context, email, password string) (*Tokens, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if m.pending[email] {
		return nil, ErrUserNotConfirmed
	}
	return &Tokens{
		Email:       email,
		IDToken:     MockToken,
		AccessToken: MockToken,
		ObtainedAt:  time.Now(),
	}, nil
}

func (m *MockProvider) Register(_ context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrInvalidCredentials
	}
	m.pending[email] = true
	return nil
}

func (m *MockProvider) ConfirmRegistration(_ context.Context, email, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrCodeMismatch
	}
	delete(m.pending, email)
	return nil
}

func (m *MockProvider) ResendCode(_ context.Context, _ string) error { return nil }

func (m *MockProvider) Revoke(_ context.Context, _ string) error { return nil }

func (m *MockProvider) Validate(_ context.Context, accessToken string) error {
	if accessToken != MockToken {
		return ErrInvalidCredentials
	}
	return nil
}
