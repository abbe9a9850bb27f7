package governance

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/apikey"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/entitlement"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
)

// Canceller cancels a user's provider subscriptions.
type Canceller interface {
	CancelAll(ctx context.Context, userID uuid.UUID) (int, error)
}

// KeyIssuer issues API keys.
type KeyIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, apikey.Key, error)
}

func activeStatus(ctx handler.Context, _ struct{}) handler.Response {
	status, ok := entitlement.StatusFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrInternal)
	}
	return handler.JSON(status)
}

func subscriptionDetails(ctx handler.Context, _ struct{}) handler.Response {
	details, ok := entitlement.DetailsFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrInternal)
	}
	return handler.JSON(details)
}

type cancelResponse struct {
	Cancelled int `json:"cancelled"`
}

func cancelSubscriptions(c Canceller, log *slog.Logger) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		userID, ok := auth.UserID(ctx)
		if !ok {
			return handler.JSONError(auth.ErrUnauthenticated)
		}

		n, err := c.CancelAll(ctx, userID)
		switch {
		case errors.Is(err, billing.ErrLinkNotFound):
			return handler.JSONError(ErrNoSubscription)
		case errors.Is(err, billing.ErrProviderRequest), errors.Is(err, billing.ErrCancelFailed):
			log.ErrorContext(ctx, "subscription cancel failed", logger.UserID(userID), logger.Error(err))
			return handler.JSONError(ErrProvider)
		case err != nil:
			log.ErrorContext(ctx, "subscription cancel failed", logger.UserID(userID), logger.Error(err))
			return handler.JSONError(err)
		}
		return handler.JSON(cancelResponse{Cancelled: n})
	}
}

type issuedKey struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// issueAPIKey requires the stored subscription flag, not a paid interval:
// a cancelled subscription stops key rotation even while access lasts.
func issueAPIKey(keys KeyIssuer, log *slog.Logger) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		userID, ok := auth.UserID(ctx)
		if !ok {
			return handler.JSONError(auth.ErrUnauthenticated)
		}
		details, ok := entitlement.DetailsFromContext(ctx)
		if !ok || !details.HasActiveEntitlement {
			return handler.JSONError(entitlement.ErrEntitlementRequired)
		}

		raw, key, err := keys.Issue(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "failed to issue api key", logger.UserID(userID), logger.Error(err))
			return handler.JSONError(err)
		}
		log.InfoContext(ctx, "api key issued", logger.UserID(userID), slog.String("key_id", key.ID.String()))
		return handler.JSON(issuedKey{ID: key.ID, Key: raw, CreatedAt: key.CreatedAt}, handler.WithJSONStatus(http.StatusCreated))
	}
}
