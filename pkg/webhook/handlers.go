package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
)

// CheckoutHandler links the checkout's user to its provider customer.
// A checkout without both ids was not started by this application and
// fails with ErrIntegration.
func CheckoutHandler(links billing.LinkStore, log *slog.Logger) HandlerFunc {
	return func(ctx context.Context, e Event) error {
		c := e.Checkout
		if c == nil || c.UserID == "" || c.CustomerID == "" {
			return fmt.Errorf("%w: checkout %s has no user or customer id", ErrIntegration, e.ID)
		}
		userID, err := uuid.Parse(c.UserID)
		if err != nil {
			return fmt.Errorf("%w: checkout %s user id %q: %v", ErrIntegration, e.ID, c.UserID, err)
		}

		if err := links.LinkCustomer(ctx, userID, c.CustomerID); err != nil {
			if errors.Is(err, billing.ErrCustomerConflict) {
				return errors.Join(ErrIntegration, err)
			}
			return fmt.Errorf("link customer: %w", err)
		}

		log.InfoContext(ctx, "customer linked",
			logger.UserID(userID),
			logger.CustomerID(c.CustomerID),
		)
		return nil
	}
}

// PaymentHandler records the paid interval of a successful payment. The
// invoice id is the idempotency key: a redelivered invoice is accepted
// without a second row.
func PaymentHandler(store billing.Store, resolver *LinkageResolver, clk clock.Clock, log *slog.Logger) HandlerFunc {
	if clk == nil {
		clk = clock.Real{}
	}
	return func(ctx context.Context, e Event) error {
		p := e.Payment
		switch {
		case p == nil || p.CustomerID == "":
			return fmt.Errorf("%w: payment %s has no customer id", ErrIntegration, e.ID)
		case p.InvoiceID == "":
			return fmt.Errorf("%w: payment %s has no invoice id", ErrIntegration, e.ID)
		case p.PeriodStart.IsZero() || p.PeriodEnd.IsZero():
			return fmt.Errorf("%w: invoice %s has no billing period", ErrIntegration, p.InvoiceID)
		}

		userID, err := resolver.Resolve(ctx, p.CustomerID)
		if err != nil {
			return err
		}

		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = clk.Now()
		}
		interval := billing.PaymentInterval{
			ID:            uuid.New(),
			UserID:        userID,
			CustomerID:    p.CustomerID,
			InvoiceID:     p.InvoiceID,
			Amount:        p.Amount,
			Currency:      p.Currency,
			BillingReason: p.BillingReason,
			Start:         p.PeriodStart,
			End:           p.PeriodEnd,
			CreatedAt:     createdAt,
		}

		switch err := store.InsertInterval(ctx, interval); {
		case errors.Is(err, billing.ErrDuplicateInvoice):
			log.InfoContext(ctx, "invoice already recorded",
				logger.InvoiceID(p.InvoiceID),
				logger.UserID(userID),
			)
			return nil
		case errors.Is(err, billing.ErrInvalidInterval):
			return errors.Join(ErrIntegration, err)
		case err != nil:
			return fmt.Errorf("insert payment interval: %w", err)
		}

		if !interval.End.Before(clk.Now()) {
			if err := store.SetSubscriptionFlag(ctx, userID, true); err != nil {
				return fmt.Errorf("set subscription flag: %w", err)
			}
		}

		log.InfoContext(ctx, "payment interval recorded",
			logger.UserID(userID),
			logger.InvoiceID(p.InvoiceID),
			slog.Time("start", p.PeriodStart),
			slog.Time("end", p.PeriodEnd),
		)
		return nil
	}
}

// DefaultRegistry registers the checkout and payment handlers.
func DefaultRegistry(store billing.Store, resolver *LinkageResolver, clk clock.Clock, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	r := NewRegistry()
	r.Register(KindCheckoutCompleted, CheckoutHandler(store, log))
	r.Register(KindPaymentSucceeded, PaymentHandler(store, resolver, clk, log))
	return r
}
