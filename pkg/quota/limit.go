package quota

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
)

// Ledger is the part of the event ledger the limiter needs.
type Ledger interface {
	CountInWindow(ctx context.Context, kind events.Kind, userID uuid.UUID, hours int) (int, error)
	Record(ctx context.Context, kind events.Kind, userID uuid.UUID, metadata events.Metadata) error
}

// Option configures Limit.
type Option func(*options)

type options struct {
	log     *slog.Logger
	metrics *metrics.Collector
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

// Limit enforces rule for the user authenticated on the context.
// It panics if ledger is nil or rule is invalid.
func Limit[C handler.Context, R any](ledger Ledger, rule Rule, opts ...Option) handler.Decorator[C, R] {
	if ledger == nil {
		panic("quota.Limit: ledger is required")
	}
	if err := rule.Validate(); err != nil {
		panic("quota.Limit: " + err.Error())
	}

	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	event := string(rule.Event)

	return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
		return func(ctx C, req R) handler.Response {
			userID, ok := auth.UserID(ctx)
			if !ok {
				return handler.JSONError(auth.ErrUnauthenticated)
			}

			count, err := ledger.CountInWindow(ctx, rule.Event, userID, rule.WindowHours)
			if err != nil {
				o.metrics.QuotaDecision(event, "error")
				o.log.ErrorContext(ctx, "quota check failed",
					logger.Component("quota"),
					logger.EventKind(rule.Event),
					logger.UserID(userID),
					logger.Error(err),
				)
				return handler.JSONError(err)
			}

			if count >= rule.MaxCalls {
				o.metrics.QuotaDecision(event, "rejected")
				o.log.WarnContext(ctx, "quota exceeded",
					logger.Component("quota"),
					logger.EventKind(rule.Event),
					logger.UserID(userID),
					slog.Int("current_count", count),
					slog.Int("max_calls", rule.MaxCalls),
				)
				return handler.JSONError(ExceededError{Rule: rule, CurrentCount: count})
			}
			o.metrics.QuotaDecision(event, "allowed")

			resp := next(ctx, req)
			if !handler.IsSuccess(resp) {
				return resp
			}

			if err := ledger.Record(ctx, rule.Event, userID, rule.Metadata); err != nil {
				o.metrics.QuotaRecordFailure(event)
				o.log.ErrorContext(ctx, "failed to record usage event",
					logger.Component("quota"),
					logger.EventKind(rule.Event),
					logger.UserID(userID),
					logger.Error(err),
				)
			}

			h := http.Header{}
			h.Set(HeaderLimit, strconv.Itoa(rule.MaxCalls))
			h.Set(HeaderRemaining, strconv.Itoa(max(rule.MaxCalls-count-1, 0)))
			return handler.WithHeaders(resp, h)
		}
	}
}
