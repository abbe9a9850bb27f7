package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
)

func serve(t *testing.T, a auth.Authenticator, r *http.Request) (*httptest.ResponseRecorder, uuid.UUID) {
	t.Helper()

	var seen uuid.UUID
	h := handler.Wrap(
		func(ctx handler.Context, _ struct{}) handler.Response {
			seen, _ = auth.UserID(ctx)
			return handler.JSON("ok")
		},
		handler.WithDecorators(auth.Require[handler.Context, struct{}](a)),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec, seen
}

func TestRequire(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("stores user id for inner handlers", func(t *testing.T) {
		t.Parallel()
		a := auth.AuthenticatorFunc(func(*http.Request) (uuid.UUID, error) { return userID, nil })

		rec, seen := serve(t, a, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("credential errors answer 401", func(t *testing.T) {
		t.Parallel()
		for _, cause := range []error{auth.ErrMissingCredentials, auth.ErrInvalidCredentials, auth.ErrExpiredCredentials} {
			a := auth.AuthenticatorFunc(func(*http.Request) (uuid.UUID, error) { return uuid.Nil, cause })

			rec, seen := serve(t, a, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code, cause.Error())
			assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			assert.Equal(t, uuid.Nil, seen)
		}
	})

	t.Run("nil user without error answers 401", func(t *testing.T) {
		t.Parallel()
		a := auth.AuthenticatorFunc(func(*http.Request) (uuid.UUID, error) { return uuid.Nil, nil })

		rec, _ := serve(t, a, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("dependency failure answers 500 without detail", func(t *testing.T) {
		t.Parallel()
		a := auth.AuthenticatorFunc(func(*http.Request) (uuid.UUID, error) {
			return uuid.Nil, errors.New("dial tcp: connection refused")
		})

		rec, _ := serve(t, a, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("nil authenticator panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { auth.Require[handler.Context, struct{}](nil) })
	})
}

func TestUserID(t *testing.T) {
	t.Parallel()

	_, ok := auth.UserID(context.Background())
	assert.False(t, ok)

	_, ok = auth.UserID(auth.ContextWithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil uuid is not an identity")

	id := uuid.New()
	got, ok := auth.UserID(auth.ContextWithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

type keyVerifierFunc func(ctx context.Context, raw string) (uuid.UUID, error)

func (f keyVerifierFunc) Verify(ctx context.Context, raw string) (uuid.UUID, error) { return f(ctx, raw) }

func TestAPIKeyAuthenticator(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	a := auth.NewAPIKeyAuthenticator(keyVerifierFunc(func(_ context.Context, raw string) (uuid.UUID, error) {
		if raw == "good-key" {
			return owner, nil
		}
		return uuid.Nil, auth.ErrInvalidCredentials
	}))

	tests := []struct {
		name    string
		headers map[string]string
		want    uuid.UUID
		wantErr error
	}{
		{name: "x-api-key header", headers: map[string]string{"X-API-Key": "good-key"}, want: owner},
		{name: "bearer fallback", headers: map[string]string{"Authorization": "Bearer good-key"}, want: owner},
		{name: "header wins over bearer", headers: map[string]string{"X-API-Key": "good-key", "Authorization": "Bearer bad"}, want: owner},
		{name: "unknown key", headers: map[string]string{"X-API-Key": "bad"}, wantErr: auth.ErrInvalidCredentials},
		{name: "no credentials", wantErr: auth.ErrMissingCredentials},
		{name: "basic scheme ignored", headers: map[string]string{"Authorization": "Basic good-key"}, wantErr: auth.ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got, err := a.Authenticate(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionAuthenticator(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	sessions := auth.NewSessionAuthenticator("session-secret", auth.WithSessionClock(clk), auth.WithSessionTTL(time.Hour))
	userID := uuid.New()

	bearer := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		return r
	}

	token, err := sessions.Issue(userID)
	require.NoError(t, err)

	got, err := sessions.Authenticate(bearer(token))
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	t.Run("foreign signature", func(t *testing.T) {
		other := auth.NewSessionAuthenticator("other-secret", auth.WithSessionClock(clk))
		forged, err := other.Issue(userID)
		require.NoError(t, err)

		_, err = sessions.Authenticate(bearer(forged))
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "quotaguard",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = sessions.Authenticate(bearer(unsigned))
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := sessions.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	})

	t.Run("expired", func(t *testing.T) {
		clk.Advance(2 * time.Hour)
		_, err := sessions.Authenticate(bearer(token))
		assert.ErrorIs(t, err, auth.ErrExpiredCredentials)
	})
}
