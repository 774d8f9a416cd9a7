package auth

import (
	"context"
	"log/slog"
)

// credentialStorage is what the Gate needs from credential persistence.
type credentialStorage interface {
	Load() *Tokens
	Save(*Tokens) error
	Clear() error
}

// Gate decides whether the chat is reachable. It combines a Provider with
// local credential storage and enforces one rule above all: after a logout
// request, local state is never left authenticated, whatever the network
// did.
type Gate struct {
	provider Provider
	creds    credentialStorage
	log      *slog.Logger
}

// NewGate wires a Gate from its two collaborators.
func NewGate(provider Provider, creds credentialStorage, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{provider: provider, creds: creds, log: log}
}

// Login authenticates and stores the issued tokens. A storage failure is
// logged but does not fail the login; the session just won't survive a
// restart.
func (g *Gate) Login(ctx context.Context, email, password string) (*Tokens, error) {
	tokens, err := g.provider.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := g.creds.Save(tokens); err != nil {
		g.log.Warn("credential save failed, session will not persist", "error", err)
	}
	return tokens, nil
}

// Register starts a registration; the account is pending until confirmed.
func (g *Gate) Register(ctx context.Context, email, password string) error {
	return g.provider.Register(ctx, email, password)
}

// ConfirmRegistration completes a pending registration.
func (g *Gate) ConfirmRegistration(ctx context.Context, email, code string) error {
	return g.provider.ConfirmRegistration(ctx, email, code)
}

// ResendCode requests a fresh confirmation code.
func (g *Gate) ResendCode(ctx context.Context, email string) error {
	return g.provider.ResendCode(ctx, email)
}

// Logout revokes the session remotely when possible and clears local
// credentials unconditionally.
func (g *Gate) Logout(ctx context.Context) error {
	if tokens := g.creds.Load(); tokens != nil {
		if err := g.provider.Revoke(ctx, tokens.AccessToken); err != nil {
			g.log.Warn("remote sign-out failed, clearing local state anyway", "error", err)
		}
	}
	return g.creds.Clear()
}

// CheckExistingSession restores a previous login by re-validating the
// stored token with the provider. Any validation failure clears the
// stored credentials; a stale token is never trusted.
func (g *Gate) CheckExistingSession(ctx context.Context) *Tokens {
	tokens := g.creds.Load()
	if tokens == nil {
		return nil
	}
	if err := g.provider.Validate(ctx, tokens.AccessToken); err != nil {
		g.log.Info("stored session invalid, clearing", "error", err)
		if err := g.creds.Clear(); err != nil {
			g.log.Warn("credential clear failed", "error", err)
		}
		return nil
	}
	return tokens
}
