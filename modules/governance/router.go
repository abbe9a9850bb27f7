package governance

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/entitlement"
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
	"github.com/dmitrymomot/quotaguard/pkg/quota"
)

// RouterOptions carries the components behind the API. Logger, Metrics,
// Clock and Policies are optional; everything else is required.
type RouterOptions struct {
	Ledger    *events.Ledger
	Billing   billing.Store
	Canceller Canceller
	Keys      KeyIssuer
	APIKeys   auth.Authenticator
	Sessions  auth.Authenticator
	Refresher Refresher
	Webhook   http.Handler

	Policies quota.Policies
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Clock    clock.Clock
}

func (o *RouterOptions) validate() error {
	switch {
	case o.Ledger == nil:
		return fmt.Errorf("%w: ledger", ErrMissingDependency)
	case o.Billing == nil:
		return fmt.Errorf("%w: billing store", ErrMissingDependency)
	case o.Canceller == nil:
		return fmt.Errorf("%w: canceller", ErrMissingDependency)
	case o.Keys == nil:
		return fmt.Errorf("%w: key issuer", ErrMissingDependency)
	case o.APIKeys == nil || o.Sessions == nil:
		return fmt.Errorf("%w: authenticators", ErrMissingDependency)
	case o.Refresher == nil:
		return fmt.Errorf("%w: refresher", ErrMissingDependency)
	case o.Webhook == nil:
		return fmt.Errorf("%w: webhook handler", ErrMissingDependency)
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	o.Policies = DefaultPolicies().Merge(o.Policies)
	return nil
}

type decorator = handler.Decorator[handler.Context, struct{}]

// Router builds the API router. Paths are relative to the mount point,
// cmd/quotaguard mounts it at /api.
func Router(opts RouterOptions) (chi.Router, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger.With(logger.Component("governance"))

	authOpts := []auth.Option{auth.WithLogger(log), auth.WithMetrics(opts.Metrics)}
	apiKey := auth.Require[handler.Context, struct{}](opts.APIKeys, append(authOpts, auth.WithName("api_key"))...)
	session := auth.Require[handler.Context, struct{}](opts.Sessions, append(authOpts, auth.WithName("session"))...)

	gateOpts := []entitlement.Option{
		entitlement.WithClock(opts.Clock),
		entitlement.WithLogger(log),
		entitlement.WithMetrics(opts.Metrics),
	}
	quotaOpts := []quota.Option{quota.WithLogger(log), quota.WithMetrics(opts.Metrics)}

	refreshLimits, err := quota.Decorators[handler.Context, struct{}](opts.Policies, PolicyDataRefresh, opts.Ledger, quotaOpts...)
	if err != nil {
		return nil, err
	}
	demoLimits, err := quota.Decorators[handler.Context, struct{}](opts.Policies, PolicyUsageDemo, opts.Ledger, quotaOpts...)
	if err != nil {
		return nil, err
	}

	errorHandler := handler.WithErrorHandler[handler.Context, struct{}](handler.NewErrorHandler(log))
	wrap := func(h handler.HandlerFunc[handler.Context, struct{}], ds ...decorator) http.HandlerFunc {
		return handler.Wrap(h, errorHandler, handler.WithDecorators(ds...))
	}

	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		refresh := append([]decorator{apiKey, entitlement.RequireActive[handler.Context, struct{}](opts.Billing, gateOpts...)}, refreshLimits...)
		r.Post("/data/refresh", wrap(refreshData(opts.Ledger, opts.Refresher, log), refresh...))
		r.Get("/usage/demo", wrap(usageDemo(opts.Ledger, 24), append([]decorator{apiKey}, demoLimits...)...))
	})

	r.Route("/purchases", func(r chi.Router) {
		r.Get("/active", wrap(activeStatus, session, entitlement.WithStatus[handler.Context, struct{}](opts.Billing, gateOpts...)))
		r.Get("/details", wrap(subscriptionDetails, session, entitlement.WithDetails[handler.Context, struct{}](opts.Billing, opts.Billing, gateOpts...)))
		r.Post("/cancel", wrap(cancelSubscriptions(opts.Canceller, log), session))
		r.Method(http.MethodPost, "/webhook", opts.Webhook)
	})

	r.Post("/security/api-keys", wrap(issueAPIKey(opts.Keys, log),
		session, entitlement.WithDetails[handler.Context, struct{}](opts.Billing, opts.Billing, gateOpts...),
	))

	return r, nil
}
