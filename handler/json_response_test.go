package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/handler"
)

type limitError struct{ count int }

func (e limitError) Error() string { return "limit reached" }
func (e limitError) Unwrap() error { return handler.ErrTooManyRequests }
func (e limitError) Meta() map[string]any {
	return map[string]any{"current_count": e.count}
}

func render(t *testing.T, resp handler.Response) (*httptest.ResponseRecorder, handler.JSONResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return w, got
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("simple data", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSON(map[string]string{"id": "123"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, handler.JSONResponse{Data: map[string]any{"id": "123"}}, got)
	})

	t.Run("with meta, status and header", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSON("ok",
			handler.WithJSONStatus(http.StatusAccepted),
			handler.WithJSONMeta(map[string]any{"version": "1.0"}),
			handler.WithJSONHeader("X-Test", "yes"),
		))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Test"))
		assert.Equal(t, map[string]any{"version": "1.0"}, got.Meta)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(handler.ErrUnauthorized))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		require.NotNil(t, got.Error)
		assert.Equal(t, "unauthorized", got.Error.Code)
		assert.Equal(t, "Unauthorized", got.Error.Message)
	})

	t.Run("wrapped http error keeps its message", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("%w: missing credentials", handler.ErrUnauthorized)
		w, got := render(t, handler.JSONError(err))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized: missing credentials", got.Error.Message)
	})

	t.Run("plain error hides detail", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(errors.New("pq: connection refused")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", got.Error.Code)
		assert.NotContains(t, got.Error.Message, "connection refused")
	})

	t.Run("meta error fills meta", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(limitError{count: 10}))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "too_many_requests", got.Error.Code)
		assert.Equal(t, "limit reached", got.Error.Message)
		assert.Equal(t, float64(10), got.Meta["current_count"])
	})
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, handler.StatusOf(handler.JSON("ok")))
	assert.Equal(t, http.StatusNoContent, handler.StatusOf(handler.Empty()))
	assert.Equal(t, http.StatusForbidden, handler.StatusOf(handler.JSONError(handler.ErrForbidden)))

	assert.True(t, handler.IsSuccess(handler.JSON("ok")))
	assert.True(t, handler.IsSuccess(handler.Empty()))
	assert.False(t, handler.IsSuccess(handler.JSONError(handler.ErrBadRequest)))
	assert.False(t, handler.IsSuccess(nil))
}

func TestWithHeaders(t *testing.T) {
	t.Parallel()

	inner := handler.WithHeaders(handler.JSON("ok"), http.Header{"X-Ratelimit-Limit": {"3"}})
	outer := handler.WithHeaders(inner, http.Header{"X-Ratelimit-Limit": {"10"}, "X-Outer": {"1"}})

	w := httptest.NewRecorder()
	require.NoError(t, outer.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-Outer"))
	assert.Equal(t, http.StatusOK, handler.StatusOf(outer))
}

func TestWithHeadersCanonicalizesKeys(t *testing.T) {
	t.Parallel()

	inner := handler.WithHeaders(handler.JSON("ok"), http.Header{"x-ratelimit-limit": {"3"}})
	outer := handler.WithHeaders(inner, http.Header{"X-RateLimit-Limit": {"10"}})

	w := httptest.NewRecorder()
	require.NoError(t, outer.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, []string{"10"}, w.Header().Values("X-RateLimit-Limit"))
	assert.Len(t, w.Header(), 2, "one rate limit header plus content type")
}
