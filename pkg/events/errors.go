package events

import "errors"

var (
	ErrNotFound      = errors.New("events: no event found")
	ErrInvalidKind   = errors.New("events: event kind is required")
	ErrInvalidUser   = errors.New("events: user id is required")
	ErrInvalidWindow = errors.New("events: window must be at least one hour")
	ErrStorage       = errors.New("events: storage failure")
)
