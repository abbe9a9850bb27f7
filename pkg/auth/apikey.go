package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// APIKeyHeader is the header machine clients send their key in.
const APIKeyHeader = "X-API-Key"

// KeyVerifier checks a raw API key and returns its owner.
type KeyVerifier interface {
	Verify(ctx context.Context, raw string) (uuid.UUID, error)
}

// APIKeyAuthenticator reads an API key from the X-API-Key header, falling
// back to a Bearer token, and resolves it through a KeyVerifier.
type APIKeyAuthenticator struct {
	keys KeyVerifier
}

func NewAPIKeyAuthenticator(keys KeyVerifier) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{keys: keys}
}

func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if raw == "" {
		raw, _ = bearerToken(r)
	}
	if raw == "" {
		return uuid.Nil, ErrMissingCredentials
	}
	return a.keys.Verify(r.Context(), raw)
}
