package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
)

const (
	defaultHandlerTimeout = 15 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

// Archiver keeps a copy of verified deliveries. Archive failures are
// logged and never fail the delivery.
type Archiver interface {
	Archive(ctx context.Context, provider string, e Event) error
}

// Reconciler receives deliveries from one billing provider.
type Reconciler struct {
	provider Provider
	registry *Registry
	log      *slog.Logger
	metrics  *metrics.Collector
	clock    clock.Clock
	archiver Archiver
	timeout  time.Duration
	maxBody  int64
	observe  func(Delivery)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithArchiver(a Archiver) Option {
	return func(r *Reconciler) { r.archiver = a }
}

// WithHandlerTimeout bounds a single handler run, linkage retries included.
func WithHandlerTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxBody = n
		}
	}
}

// WithDeliveryObserver calls fn with every delivery once it reaches a
// terminal state.
func WithDeliveryObserver(fn func(Delivery)) Option {
	return func(r *Reconciler) { r.observe = fn }
}

func NewReconciler(provider Provider, registry *Registry, opts ...Option) *Reconciler {
	if provider == nil {
		panic("webhook: nil provider")
	}
	if registry == nil {
		panic("webhook: nil registry")
	}
	r := &Reconciler{
		provider: provider,
		registry: registry,
		log:      logger.Discard(),
		clock:    clock.Real{},
		timeout:  defaultHandlerTimeout,
		maxBody:  defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler returns the HTTP endpoint the provider posts to.
func (r *Reconciler) Handler() http.HandlerFunc {
	return handler.Wrap(r.handle)
}

func (r *Reconciler) handle(ctx handler.Context, _ struct{}) handler.Response {
	start := r.clock.Now()
	d := newDelivery(r.provider.Name(), start)
	log := r.log.With(logger.Provider(d.Provider))

	req := ctx.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), req.Body, r.maxBody))
	if err != nil {
		r.finish(ctx, d, log, start, StateSignatureRejected)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.WarnContext(ctx, "webhook payload too large", slog.Int64("limit", tooLarge.Limit))
			return ack(http.StatusRequestEntityTooLarge, "payload too large")
		}
		log.WarnContext(ctx, "failed to read webhook payload", logger.Error(err))
		return ack(http.StatusBadRequest, "invalid payload")
	}

	event, err := r.provider.Verify(ctx, payload, req.Header)
	if err != nil {
		if IsSignatureError(err) {
			log.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
			r.finish(ctx, d, log, start, StateSignatureRejected)
			return ack(http.StatusBadRequest, "invalid signature")
		}
		// Authentic but unreadable: fail so the provider keeps the delivery.
		log.ErrorContext(ctx, "verified webhook could not be decoded", logger.Error(err))
		r.finish(ctx, d, log, start, StateSignatureVerified, StateDispatched, StateHandlerFailed)
		return ack(http.StatusInternalServerError, "failed to handle event")
	}

	d.EventID, d.Kind = event.ID, event.Kind
	log = log.With(logger.DeliveryID(event.ID), logger.EventKind(event.Kind))
	r.advance(ctx, d, log, StateSignatureVerified)

	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, d.Provider, event); err != nil {
			log.ErrorContext(ctx, "failed to archive webhook", logger.Error(err))
		}
	}

	r.advance(ctx, d, log, StateDispatched)

	h, ok := r.registry.Lookup(event.Kind)
	if !ok {
		log.WarnContext(ctx, "no handler for webhook kind, acknowledging",
			slog.String("provider_kind", event.ProviderKind),
		)
		r.finish(ctx, d, log, start, StateHandled)
		return ack(http.StatusOK, "")
	}

	if err := r.run(ctx, h, event); err != nil {
		log.ErrorContext(ctx, "webhook handler failed", logger.Error(err))
		r.finish(ctx, d, log, start, StateHandlerFailed)
		return ack(http.StatusInternalServerError, "failed to handle event")
	}

	r.finish(ctx, d, log, start, StateHandled)
	return ack(http.StatusOK, "")
}

// run executes h under the handler timeout and turns a panic into an error.
func (r *Reconciler) run(ctx context.Context, h HandlerFunc, e Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()

	return h(ctx, e)
}

func (r *Reconciler) advance(ctx context.Context, d *Delivery, log *slog.Logger, to State) {
	if err := d.To(to); err != nil {
		log.ErrorContext(ctx, "delivery state", logger.Error(err))
	}
}

func (r *Reconciler) finish(ctx context.Context, d *Delivery, log *slog.Logger, start time.Time, states ...State) {
	for _, s := range states {
		r.advance(ctx, d, log, s)
	}
	took := r.clock.Now().Sub(start)
	r.metrics.Delivery(d.Provider, string(d.Kind), string(d.State), took)
	log.DebugContext(ctx, "webhook delivery finished", logger.State(d.State), logger.Duration(took))
	if r.observe != nil {
		r.observe(*d)
	}
}

// ackResponse is the minimal body a provider gets back.
type ackResponse struct {
	status int
	reason string
}

func ack(status int, reason string) handler.Response {
	return ackResponse{status: status, reason: reason}
}

func (a ackResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(a.status)
	if a.status < http.StatusBadRequest {
		return json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}
	return json.NewEncoder(w).Encode(map[string]string{"error": a.reason})
}

func (a ackResponse) StatusCode() int { return a.status }
