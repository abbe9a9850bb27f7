package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
)

var userIDKey = handler.NewContextKey("auth.user_id")

// UserID returns the authenticated user id stored on ctx.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := handler.ContextValueOK[uuid.UUID](ctx, userIDKey)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithUserID derives a handler context carrying id.
func WithUserID[C handler.Context](ctx C, id uuid.UUID) C {
	return handler.WithValue(ctx, userIDKey, id)
}

// ContextWithUserID is WithUserID for plain contexts (background jobs, tests).
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
