// Package auth gates access to the chat behind an authenticated identity.
// A Provider wraps the hosted identity service; the Gate layers local
// credential storage and the login/registration state machine on top.
package auth

import (
	"context"
	"errors"
	"time"
)

// User-facing error translations of provider-specific rejections. The CLI
// prints these verbatim; raw provider errors are only logged.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotConfirmed   = errors.New("account not confirmed yet, check your email for the code")
	ErrUnknownUser        = errors.New("no account exists for that email")
	ErrRateLimited        = errors.New("too many attempts, try again later")
	ErrCodeMismatch       = errors.New("confirmation code does not match")
	ErrCodeExpired        = errors.New("confirmation code expired, request a new one")
	ErrUserExists         = errors.New("an account already exists for that email")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrNotAuthenticated   = errors.New("not logged in")
)

// Tokens is the credential set issued on login.
type Tokens struct {
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

// Provider is the thin wrapper over the hosted identity service. Every
// call is one request/response round trip; the Gate owns all local state.
type Provider interface {
	// Login exchanges credentials for tokens.
	Login(ctx context.Context, email, password string) (*Tokens, error)

	// Register creates an account; the account stays pending until
	// ConfirmRegistration succeeds.
	Register(ctx context.Context, email, password string) error

	// ConfirmRegistration completes a pending registration with the
	// emailed code. The user can log in afterwards.
	ConfirmRegistration(ctx context.Context, email, code string) error

	// ResendCode requests a fresh confirmation code.
	ResendCode(ctx context.Context, email string) error

	// Revoke invalidates the tokens remotely (global sign-out).
	Revoke(ctx context.Context, accessToken string) error

	// Validate checks that an access token is still good.
	Validate(ctx context.Context, accessToken string) error
}
