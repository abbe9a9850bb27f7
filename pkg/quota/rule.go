package quota

import (
	"fmt"

	"github.com/dmitrymomot/quotaguard/pkg/events"
)

// Rule caps events of one kind per user in a sliding window.
type Rule struct {
	Event       events.Kind     `yaml:"event"`
	MaxCalls    int             `yaml:"max_calls"`
	WindowHours int             `yaml:"window_hours"`
	Metadata    events.Metadata `yaml:"metadata"` // recorded with every charged event
}

// Validate checks that the rule can be enforced.
func (r Rule) Validate() error {
	switch {
	case r.Event == "":
		return fmt.Errorf("%w: event kind is required", ErrInvalidRule)
	case r.MaxCalls < 1:
		return fmt.Errorf("%w: max_calls must be positive, got %d", ErrInvalidRule, r.MaxCalls)
	case r.WindowHours < 1:
		return fmt.Errorf("%w: window_hours must be positive, got %d", ErrInvalidRule, r.WindowHours)
	}
	return nil
}
