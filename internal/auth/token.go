// Package auth issues and verifies the signed tokens that address dashboard sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Issuer is the iss claim on every session token.
const Issuer = "smart-dashboard"

// ErrInvalidToken is returned for tokens that fail signature, issuer, expiry or subject checks.
var ErrInvalidToken = errors.New("invalid session token")

// TokenManager signs session tokens with HS256.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenManager creates a token manager. ttl <= 0 issues tokens without expiry.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	return &TokenManager{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the clock used for iat/exp. Intended for tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// Issue returns a signed token whose subject is the session id.
func (m *TokenManager) Issue(sessionID uuid.UUID) (string, error) {
	now := m.now()
	b := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(sessionID.String()).
		IssuedAt(now)
	if m.ttl > 0 {
		b = b.Expiration(now.Add(m.ttl))
	}
	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Parse verifies a token and returns the session id it addresses.
func (m *TokenManager) Parse(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(token.Subject())
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
