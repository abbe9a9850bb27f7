package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LinkStore persists user to customer links.
type LinkStore interface {
	// LinkCustomer sets the customer of userID once. Setting the same value
	// again is a no-op; a different value returns ErrCustomerConflict.
	LinkCustomer(ctx context.Context, userID uuid.UUID, customerID string) error
	// Link returns the link of userID or ErrLinkNotFound.
	Link(ctx context.Context, userID uuid.UUID) (Link, error)
	// UserByCustomer returns the user linked to customerID or ErrLinkNotFound.
	UserByCustomer(ctx context.Context, customerID string) (uuid.UUID, error)
	// SetSubscriptionFlag updates the stored flag or returns ErrLinkNotFound.
	SetSubscriptionFlag(ctx context.Context, userID uuid.UUID, active bool) error
}

// IntervalStore persists paid intervals.
type IntervalStore interface {
	// InsertInterval stores p, returning ErrDuplicateInvoice when its invoice
	// id is already present.
	InsertInterval(ctx context.Context, p PaymentInterval) error
	// ActiveInterval returns the latest-ending interval of userID containing
	// at, or ErrNoActiveInterval.
	ActiveInterval(ctx context.Context, userID uuid.UUID, at time.Time) (PaymentInterval, error)
	// Intervals lists every interval of userID, latest end first.
	Intervals(ctx context.Context, userID uuid.UUID) ([]PaymentInterval, error)
}

// Store is both stores backed by one database.
type Store interface {
	LinkStore
	IntervalStore
}
