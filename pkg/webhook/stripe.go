package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	stripeUserMetadataKey = "app_user_id"
)

// StripeProvider verifies Stripe deliveries with the endpoint signing secret.
type StripeProvider struct {
	secret    string
	tolerance time.Duration
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithStripeTolerance sets the accepted age of a signature timestamp.
func WithStripeTolerance(d time.Duration) StripeOption {
	return func(p *StripeProvider) {
		if d > 0 {
			p.tolerance = d
		}
	}
}

func NewStripeProvider(secret string, opts ...StripeOption) *StripeProvider {
	p := &StripeProvider{secret: secret, tolerance: stripewebhook.DefaultTolerance}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *StripeProvider) Name() string { return ProviderStripe }

func (p *StripeProvider) Verify(_ context.Context, payload []byte, header http.Header) (Event, error) {
	sig := header.Get(stripeSignatureHeader)
	if sig == "" {
		return Event{}, ErrMissingSignature
	}

	// Parsing is kept apart from verification: an authentic body that fails
	// to decode must be redelivered, not rejected.
	if err := stripewebhook.ValidatePayloadWithTolerance(payload, sig, p.secret, p.tolerance); err != nil {
		return Event{}, errors.Join(ErrSignature, err)
	}

	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: event: %v", ErrMalformedPayload, err)
	}

	out := Event{
		ID:           ev.ID,
		Kind:         Kind(ev.Type),
		ProviderKind: string(ev.Type),
		Raw:          payload,
	}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeInvoicePaymentSucceeded:
		if ev.Data == nil {
			return Event{}, fmt.Errorf("%w: %s without data", ErrMalformedPayload, ev.Type)
		}
	}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("%w: checkout session: %v", ErrMalformedPayload, err)
		}
		out.Kind = KindCheckoutCompleted
		out.Checkout = &Checkout{
			UserID:     session.Metadata[stripeUserMetadataKey],
			CustomerID: stripeCustomerID(session.Customer),
		}

	case stripe.EventTypeInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &invoice); err != nil {
			return Event{}, fmt.Errorf("%w: invoice: %v", ErrMalformedPayload, err)
		}
		out.Kind = KindPaymentSucceeded
		out.Payment = stripePayment(&invoice)
	}

	return out, nil
}

// stripeCustomerID handles both the expanded object and the bare id form.
func stripeCustomerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// stripePayment takes the billed period from the first line item.
func stripePayment(inv *stripe.Invoice) *Payment {
	p := &Payment{
		CustomerID:    stripeCustomerID(inv.Customer),
		InvoiceID:     inv.ID,
		Amount:        inv.AmountPaid,
		Currency:      string(inv.Currency),
		BillingReason: string(inv.BillingReason),
	}
	if inv.Created > 0 {
		p.CreatedAt = time.Unix(inv.Created, 0).UTC()
	}
	if inv.Lines != nil && len(inv.Lines.Data) > 0 {
		if line := inv.Lines.Data[0]; line != nil && line.Period != nil {
			if line.Period.Start > 0 {
				p.PeriodStart = time.Unix(line.Period.Start, 0).UTC()
			}
			if line.Period.End > 0 {
				p.PeriodEnd = time.Unix(line.Period.End, 0).UTC()
			}
		}
	}
	return p
}
