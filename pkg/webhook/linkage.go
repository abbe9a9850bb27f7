package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

// LinkageResolver finds the user linked to a provider customer. The
// payment delivery can arrive before the checkout delivery that creates
// the link, so a missing link is retried on a fixed schedule.
type LinkageResolver struct {
	links    billing.LinkStore
	attempts int
	backoff  BackoffStrategy
	clock    clock.Clock
	log      *slog.Logger
	metrics  *metrics.Collector
}

// LinkageOption configures a LinkageResolver.
type LinkageOption func(*LinkageResolver)

func WithLinkageClock(c clock.Clock) LinkageOption {
	return func(r *LinkageResolver) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithLinkageLogger(l *slog.Logger) LinkageOption {
	return func(r *LinkageResolver) {
		if l != nil {
			r.log = l
		}
	}
}

func WithLinkageMetrics(m *metrics.Collector) LinkageOption {
	return func(r *LinkageResolver) { r.metrics = m }
}

// NewLinkageResolver makes at most attempts lookups, waiting backoff
// between them. attempts below one is treated as one.
func NewLinkageResolver(links billing.LinkStore, attempts int, backoff BackoffStrategy, opts ...LinkageOption) *LinkageResolver {
	if links == nil {
		panic("webhook: nil link store")
	}
	if backoff == nil {
		backoff = FixedBackoff{}
	}
	r := &LinkageResolver{
		links:    links,
		attempts: max(attempts, 1),
		backoff:  backoff,
		clock:    clock.Real{},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user linked to customerID.
//
// Only ErrLinkNotFound is retried. When the attempts run out the result is
// ErrLinkageUnresolved. A context deadline that would pass before the next
// wait ends stops early with ErrLinkageDeadline.
func (r *LinkageResolver) Resolve(ctx context.Context, customerID string) (uuid.UUID, error) {
	// The deadline is read once as a remaining budget and spent by the
	// delays waited, so the wait clock is the only time source afterwards.
	deadline, hasDeadline := ctx.Deadline()
	var budget, waited time.Duration
	if hasDeadline {
		budget = max(time.Until(deadline), 0)
	}

	for attempt := 1; ; attempt++ {
		userID, err := r.links.UserByCustomer(ctx, customerID)
		switch {
		case err == nil:
			r.metrics.LinkageAttempt("found")
			if attempt > 1 {
				r.log.InfoContext(ctx, "customer link resolved after retry",
					logger.CustomerID(customerID),
					logger.Attempt(attempt),
				)
			}
			return userID, nil
		case !errors.Is(err, billing.ErrLinkNotFound):
			r.metrics.LinkageAttempt("error")
			return uuid.Nil, err
		}
		r.metrics.LinkageAttempt("missing")

		if attempt >= r.attempts {
			return uuid.Nil, fmt.Errorf("%w: customer %s after %d attempts", ErrLinkageUnresolved, customerID, attempt)
		}

		delay := r.backoff.NextInterval(attempt)
		if hasDeadline && waited+delay > budget {
			return uuid.Nil, fmt.Errorf("%w: customer %s after %d attempts", ErrLinkageDeadline, customerID, attempt)
		}

		r.log.DebugContext(ctx, "customer not linked yet, waiting",
			logger.CustomerID(customerID),
			logger.Attempt(attempt),
			logger.Duration(delay),
		)

		select {
		case <-ctx.Done():
			return uuid.Nil, errors.Join(ErrLinkageDeadline, ctx.Err())
		case <-r.clock.After(delay):
			waited += delay
		}
	}
}
