package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Link ties an application user to a billing provider customer.
type Link struct {
	UserID                uuid.UUID
	CustomerID            string
	HasActiveSubscription bool // stored flag, not derived from intervals
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PaymentInterval is one paid billing period.
type PaymentInterval struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerID    string    `json:"customer_id"`
	InvoiceID     string    `json:"invoice_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	BillingReason string    `json:"billing_reason,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	CreatedAt     time.Time `json:"created_at"`
}

// Contains reports whether t lies in [Start, End], both ends inclusive.
func (p PaymentInterval) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Validate checks the fields required to store the interval.
func (p PaymentInterval) Validate() error {
	switch {
	case p.UserID == uuid.Nil:
		return fmt.Errorf("%w: user id is required", ErrInvalidInterval)
	case p.CustomerID == "":
		return fmt.Errorf("%w: customer id is required", ErrInvalidInterval)
	case p.InvoiceID == "":
		return fmt.Errorf("%w: invoice id is required", ErrInvalidInterval)
	case p.Start.IsZero() || p.End.IsZero():
		return fmt.Errorf("%w: billing period is required", ErrInvalidInterval)
	case p.End.Before(p.Start):
		return fmt.Errorf("%w: period ends before it starts", ErrInvalidInterval)
	}
	return nil
}
