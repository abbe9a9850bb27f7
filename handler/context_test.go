package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/handler"
)

func TestContextKey_String(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("test-key")
	assert.Equal(t, "test-key", key.String())
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	type user struct {
		ID   int
		Name string
	}

	t.Run("struct value", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("user")
		u := user{ID: 123, Name: "Alice"}
		ctx := context.WithValue(context.Background(), key, u)

		assert.Equal(t, u, handler.ContextValue[user](ctx, key))
	})

	t.Run("missing key yields zero value", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("missing")

		assert.Equal(t, user{}, handler.ContextValue[user](context.Background(), key))
	})

	t.Run("ok distinguishes zero from missing", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("count")
		ctx := context.WithValue(context.Background(), key, 0)

		got, ok := handler.ContextValueOK[int](ctx, key)
		require.True(t, ok)
		assert.Equal(t, 0, got)

		_, ok = handler.ContextValueOK[string](ctx, key)
		assert.False(t, ok, "wrong type must report false")
	})
}

func TestNewContext(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	parent, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parent)

	ctx := handler.NewContext(w, r)
	assert.Same(t, r, ctx.Request())
	assert.Equal(t, w, ctx.ResponseWriter())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWithValue_DoesNotMutateParent(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("k")
	ctx := handler.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	derived := handler.WithValue(ctx, key, "v")

	assert.Equal(t, "v", handler.ContextValue[string](derived, key))
	assert.Empty(t, handler.ContextValue[string](ctx, key))
	assert.Equal(t, ctx.ResponseWriter(), derived.ResponseWriter())
}
