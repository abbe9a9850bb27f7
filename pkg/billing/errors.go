package billing

import "errors"

var (
	ErrLinkNotFound      = errors.New("billing: no customer linked")
	ErrCustomerConflict  = errors.New("billing: user is linked to a different customer")
	ErrDuplicateInvoice  = errors.New("billing: invoice already recorded")
	ErrNoActiveInterval  = errors.New("billing: no paid interval covers the given time")
	ErrInvalidInterval   = errors.New("billing: invalid payment interval")
	ErrCancelFailed      = errors.New("billing: failed to cancel subscription")
	ErrProviderRequest   = errors.New("billing: provider request failed")
	ErrMissingCustomerID = errors.New("billing: customer id is required")
)
