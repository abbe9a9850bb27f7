package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/clock"
)

const sessionIssuer = "quotaguard"

// SessionAuthenticator validates HS256 session tokens whose subject is the user id.
type SessionAuthenticator struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// SessionOption configures a SessionAuthenticator.
type SessionOption func(*SessionAuthenticator)

// WithSessionClock overrides the clock used for issuing and validating tokens.
func WithSessionClock(c clock.Clock) SessionOption {
	return func(s *SessionAuthenticator) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSessionTTL sets the lifetime of issued tokens.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionAuthenticator) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewSessionAuthenticator(secret string, opts ...SessionOption) *SessionAuthenticator {
	if secret == "" {
		panic("auth.NewSessionAuthenticator: secret is required")
	}
	s := &SessionAuthenticator{secret: []byte(secret), ttl: 24 * time.Hour, clock: clock.Real{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a session token for userID.
func (s *SessionAuthenticator) Issue(userID uuid.UUID) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

func (s *SessionAuthenticator) Authenticate(r *http.Request) (uuid.UUID, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return uuid.Nil, ErrMissingCredentials
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, fmt.Errorf("%w: %v", ErrExpiredCredentials, err)
	case err != nil:
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	return userID, nil
}
