package governance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
)

// staleAfter is how old the last update may be before refresh pulls again.
const staleAfter = 24 * time.Hour

// Refresher pulls fresh upstream data for a user.
type Refresher interface {
	Refresh(ctx context.Context, userID uuid.UUID) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, userID uuid.UUID) error

func (f RefresherFunc) Refresh(ctx context.Context, userID uuid.UUID) error { return f(ctx, userID) }

type refreshResponse struct {
	Refreshed   bool      `json:"refreshed"`
	LastUpdated time.Time `json:"last_updated"`
}

func refreshData(ledger *events.Ledger, refresher Refresher, log *slog.Logger) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		userID, ok := auth.UserID(ctx)
		if !ok {
			return handler.JSONError(auth.ErrUnauthenticated)
		}

		last, err := ledger.Last(ctx, events.KindUpdateData, userID)
		switch {
		case errors.Is(err, events.ErrNotFound):
		case err != nil:
			log.ErrorContext(ctx, "failed to load last update", logger.UserID(userID), logger.Error(err))
			return handler.JSONError(err)
		case ledger.Now().Sub(last.Timestamp) < staleAfter:
			return handler.JSON(refreshResponse{LastUpdated: last.Timestamp})
		}

		if err := refresher.Refresh(ctx, userID); err != nil {
			log.ErrorContext(ctx, "data refresh failed", logger.UserID(userID), logger.Error(err))
			return handler.JSONError(err)
		}

		if err := ledger.Record(ctx, events.KindUpdateData, userID, events.Metadata{"source": "refresh"}); err != nil {
			log.ErrorContext(ctx, "failed to record data update",
				logger.UserID(userID),
				logger.Event(events.KindUpdateData.String()),
				logger.Error(err),
			)
		}
		return handler.JSON(refreshResponse{Refreshed: true, LastUpdated: ledger.Now()})
	}
}

type usageResponse struct {
	FetchData  int `json:"fetch_data"`
	UpdateData int `json:"update_data"`
}

// usageDemo reports the caller's counts as seen before this call is charged.
func usageDemo(ledger *events.Ledger, windowHours int) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		userID, ok := auth.UserID(ctx)
		if !ok {
			return handler.JSONError(auth.ErrUnauthenticated)
		}

		fetched, err := ledger.CountInWindow(ctx, events.KindFetchData, userID, windowHours)
		if err != nil {
			return handler.JSONError(err)
		}
		updated, err := ledger.CountInWindow(ctx, events.KindUpdateData, userID, windowHours)
		if err != nil {
			return handler.JSONError(err)
		}
		return handler.JSON(usageResponse{FetchData: fetched, UpdateData: updated})
	}
}
