package auth

import (
	"errors"

	"github.com/dmitrymomot/quotaguard/handler"
)

var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrExpiredCredentials = errors.New("auth: expired credentials")

	// ErrUnauthenticated is what clients see for any credential failure.
	ErrUnauthenticated = handler.HTTPError{Code: 401, Key: "unauthorized"}
)

// IsCredentialError reports whether err is caused by the caller's
// credentials rather than by the authenticator's dependencies.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrExpiredCredentials)
}
