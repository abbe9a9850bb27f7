package entitlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

// Option configures the gates.
type Option func(*options)

type options struct {
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Collector
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	o := options{clock: clock.Real{}, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// activeInterval returns the interval covering now, or ok=false when none does.
func activeInterval(ctx context.Context, intervals billing.IntervalStore, userID uuid.UUID, o options) (billing.PaymentInterval, bool, error) {
	p, err := intervals.ActiveInterval(ctx, userID, o.clock.Now())
	switch {
	case errors.Is(err, billing.ErrNoActiveInterval):
		return billing.PaymentInterval{}, false, nil
	case err != nil:
		return billing.PaymentInterval{}, false, err
	}
	return p, true, nil
}

func (o options) storageFailure(ctx context.Context, gate string, userID uuid.UUID, err error) handler.Response {
	o.metrics.GateDecision(gate, "error")
	o.log.ErrorContext(ctx, "failed to check subscription status",
		logger.Component("entitlement"),
		slog.String("gate", gate),
		logger.UserID(userID),
		logger.Error(err),
	)
	return handler.JSONError(err)
}

// RequireActive admits the request only while a paid interval covers now.
// Admitted requests carry a Status on the context.
func RequireActive[C handler.Context, R any](intervals billing.IntervalStore, opts ...Option) handler.Decorator[C, R] {
	if intervals == nil {
		panic("entitlement.RequireActive: interval store is required")
	}
	o := newOptions(opts)
	const gate = "require_active"

	return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
		return func(ctx C, req R) handler.Response {
			userID, ok := auth.UserID(ctx)
			if !ok {
				return handler.JSONError(auth.ErrUnauthenticated)
			}

			p, active, err := activeInterval(ctx, intervals, userID, o)
			if err != nil {
				return o.storageFailure(ctx, gate, userID, err)
			}
			if !active {
				o.metrics.GateDecision(gate, "denied")
				o.log.DebugContext(ctx, "entitlement required",
					logger.Component("entitlement"),
					logger.UserID(userID),
				)
				return handler.JSONError(ErrEntitlementRequired)
			}

			o.metrics.GateDecision(gate, "allowed")
			end := p.End
			return next(handler.WithValue(ctx, statusKey, Status{HasActiveEntitlement: true, IntervalEnd: &end}), req)
		}
	}
}

// WithStatus puts the interval-derived Status on the context and never rejects.
func WithStatus[C handler.Context, R any](intervals billing.IntervalStore, opts ...Option) handler.Decorator[C, R] {
	if intervals == nil {
		panic("entitlement.WithStatus: interval store is required")
	}
	o := newOptions(opts)
	const gate = "status"

	return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
		return func(ctx C, req R) handler.Response {
			userID, ok := auth.UserID(ctx)
			if !ok {
				return handler.JSONError(auth.ErrUnauthenticated)
			}

			p, active, err := activeInterval(ctx, intervals, userID, o)
			if err != nil {
				return o.storageFailure(ctx, gate, userID, err)
			}

			status := Status{HasActiveEntitlement: active}
			if active {
				end := p.End
				status.IntervalEnd = &end
			}
			o.metrics.GateDecision(gate, decision(active))
			return next(handler.WithValue(ctx, statusKey, status), req)
		}
	}
}

// WithDetails puts Details on the context and never rejects.
// A user without a billing link has the stored flag false.
func WithDetails[C handler.Context, R any](links billing.LinkStore, intervals billing.IntervalStore, opts ...Option) handler.Decorator[C, R] {
	if links == nil || intervals == nil {
		panic("entitlement.WithDetails: link and interval stores are required")
	}
	o := newOptions(opts)
	const gate = "details"

	return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
		return func(ctx C, req R) handler.Response {
			userID, ok := auth.UserID(ctx)
			if !ok {
				return handler.JSONError(auth.ErrUnauthenticated)
			}

			p, active, err := activeInterval(ctx, intervals, userID, o)
			if err != nil {
				return o.storageFailure(ctx, gate, userID, err)
			}

			var details Details
			link, err := links.Link(ctx, userID)
			switch {
			case errors.Is(err, billing.ErrLinkNotFound):
			case err != nil:
				return o.storageFailure(ctx, gate, userID, err)
			default:
				details.HasActiveEntitlement = link.HasActiveSubscription
			}
			if active {
				start, end := p.Start, p.End
				details.IntervalStart, details.IntervalEnd = &start, &end
			}

			o.metrics.GateDecision(gate, decision(details.HasActiveEntitlement))
			return next(handler.WithValue(ctx, detailsKey, details), req)
		}
	}
}

func decision(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
