package quota

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/quotaguard/handler"
)

var (
	ErrInvalidRule   = errors.New("quota: invalid rule")
	ErrUnknownPolicy = errors.New("quota: unknown policy")
	ErrPolicyFile    = errors.New("quota: cannot read policy file")

	ErrQuotaExceeded = handler.HTTPError{Code: http.StatusTooManyRequests, Key: "quota_exceeded"}
)

// ExceededError is returned to clients when a rule rejects a call.
// Its meta block tells the client which rule fired and how far over it is.
type ExceededError struct {
	Rule         Rule
	CurrentCount int
}

func (e ExceededError) Error() string { return "rate limit exceeded" }

func (e ExceededError) Unwrap() error { return ErrQuotaExceeded }

func (e ExceededError) Meta() map[string]any {
	return map[string]any{
		"event":         string(e.Rule.Event),
		"max_calls":     e.Rule.MaxCalls,
		"window_hours":  e.Rule.WindowHours,
		"current_count": e.CurrentCount,
	}
}
