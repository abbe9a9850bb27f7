package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

// Authenticator resolves the caller of a request.
// Credential problems must be reported with (or wrapping) ErrMissingCredentials,
// ErrInvalidCredentials or ErrExpiredCredentials; anything else is treated
// as an internal failure.
type Authenticator interface {
	Authenticate(r *http.Request) (uuid.UUID, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (uuid.UUID, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (uuid.UUID, error) {
	return f(r)
}

// Option configures Require.
type Option func(*options)

type options struct {
	log     *slog.Logger
	metrics *metrics.Collector
	name    string
}

// WithLogger sets the logger used for rejected and failed authentications.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics counts authentication outcomes.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithName labels logs and metrics, e.g. "api_key" or "session".
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// Require authenticates the request before the wrapped handler runs.
// On success the user id is stored on the context passed inwards.
// Credential errors answer 401, any other error answers 500.
func Require[C handler.Context, R any](a Authenticator, opts ...Option) handler.Decorator[C, R] {
	if a == nil {
		panic("auth.Require: authenticator is required")
	}
	o := options{log: slog.Default(), name: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
		return func(ctx C, req R) handler.Response {
			userID, err := a.Authenticate(ctx.Request())
			switch {
			case err == nil && userID != uuid.Nil:
				o.metrics.AuthDecision(o.name, "accepted")
				return next(WithUserID(ctx, userID), req)
			case err == nil, IsCredentialError(err):
				o.metrics.AuthDecision(o.name, "rejected")
				o.log.DebugContext(ctx, "authentication rejected",
					logger.Component("auth"),
					slog.String("authenticator", o.name),
					logger.Error(err),
				)
				return handler.JSONError(ErrUnauthenticated)
			default:
				o.metrics.AuthDecision(o.name, "error")
				o.log.ErrorContext(ctx, "authentication failed",
					logger.Component("auth"),
					slog.String("authenticator", o.name),
					logger.Error(err),
				)
				return handler.JSONError(err)
			}
		}
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
