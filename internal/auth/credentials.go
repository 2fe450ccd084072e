package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"tenantpay/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredential      = errors.New("no credential available")
	ErrCredentialExpired = errors.New("credential expired")
)

// TokenSource supplies the current bearer token for backend calls
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns a fixed token (tests, one-shot CLI runs)
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// EnvTokenSource reads the token from an environment variable on every call
type EnvTokenSource string

func (e EnvTokenSource) Token() (string, error) {
	tok := strings.TrimSpace(os.Getenv(string(e)))
	if tok == "" {
		return "", ErrNoCredential
	}
	return tok, nil
}

// FileTokenSource reads the token from a file on every call, so a
// re-authentication by another process is picked up without restart
type FileTokenSource string

func (f FileTokenSource) Token() (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNoCredential
	}
	return tok, nil
}

// RemoteVerifier confirms the credential with the backend
type RemoteVerifier interface {
	CheckAuth(ctx context.Context) error
}

// Manager confirms credential validity before any payment call. The token
// is inspected locally for expiry first (the signing secret lives on the
// backend, so the signature itself is never verified here), then confirmed
// with the backend.
type Manager struct {
	tokens TokenSource
	remote RemoteVerifier
}

func NewManager(tokens TokenSource, remote RemoteVerifier) *Manager {
	return &Manager{tokens: tokens, remote: remote}
}

// Confirm returns nil only when the current credential is usable
func (m *Manager) Confirm(ctx context.Context) error {
	tok, err := m.tokens.Token()
	if err != nil {
		return err
	}

	// Expired tokens fail fast without a network round-trip. Tokens that
	// do not parse as JWTs are treated as opaque and left to the backend.
	if err := checkLocalExpiry(tok); err != nil {
		return err
	}

	if err := m.remote.CheckAuth(ctx); err != nil {
		return fmt.Errorf("credential rejected by backend: %w", err)
	}

	return nil
}

func checkLocalExpiry(tok string) error {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return nil
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	if exp.Time.Before(timeutil.Now()) {
		return ErrCredentialExpired
	}
	return nil
}
