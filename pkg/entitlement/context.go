package entitlement

import (
	"context"
	"time"

	"github.com/dmitrymomot/quotaguard/handler"
)

// Status is the interval-derived entitlement of the caller.
type Status struct {
	HasActiveEntitlement bool       `json:"has_active_subscription"`
	IntervalEnd          *time.Time `json:"subscription_end,omitempty"`
}

// Details combines the stored subscription flag with the interval covering now.
// HasActiveEntitlement comes from the stored flag, not from the interval.
type Details struct {
	HasActiveEntitlement bool       `json:"has_active_subscription"`
	IntervalStart        *time.Time `json:"subscription_start,omitempty"`
	IntervalEnd          *time.Time `json:"subscription_end,omitempty"`
}

var (
	statusKey  = handler.NewContextKey("entitlement.status")
	detailsKey = handler.NewContextKey("entitlement.details")
)

// StatusFromContext returns the Status set by RequireActive or WithStatus.
func StatusFromContext(ctx context.Context) (Status, bool) {
	return handler.ContextValueOK[Status](ctx, statusKey)
}

// DetailsFromContext returns the Details set by WithDetails.
func DetailsFromContext(ctx context.Context) (Details, bool) {
	return handler.ContextValueOK[Details](ctx, detailsKey)
}
