package webhook

import (
	"context"
	"net/http"
	"time"
)

// Kind is a provider independent event kind. Provider events without a
// mapping keep their provider name as Kind.
type Kind string

const (
	KindCheckoutCompleted Kind = "checkout_completed"
	KindPaymentSucceeded  Kind = "payment_succeeded"
)

// Event is a verified delivery normalized across providers.
type Event struct {
	ID           string
	Kind         Kind
	ProviderKind string
	Checkout     *Checkout // set for KindCheckoutCompleted
	Payment      *Payment  // set for KindPaymentSucceeded
	Raw          []byte    // verified payload as received
}

// Checkout carries the linkage established by a completed checkout.
// UserID comes from metadata attached when the checkout was started.
type Checkout struct {
	UserID     string
	CustomerID string
}

// Payment describes a successful charge for a billing period.
type Payment struct {
	CustomerID    string
	InvoiceID     string
	Amount        int64
	Currency      string
	BillingReason string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	CreatedAt     time.Time
}

// Provider verifies a delivery and normalizes it.
// Verification failures wrap ErrSignature or ErrMissingSignature.
type Provider interface {
	Name() string
	Verify(ctx context.Context, payload []byte, header http.Header) (Event, error)
}
