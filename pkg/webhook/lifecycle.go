package webhook

import (
	"fmt"
	"slices"
	"time"
)

// State is the processing state of one delivery.
type State string

const (
	StateReceived          State = "received"
	StateSignatureVerified State = "signature_verified"
	StateSignatureRejected State = "signature_rejected"
	StateDispatched        State = "dispatched"
	StateHandled           State = "handled"
	StateHandlerFailed     State = "handler_failed"
)

var transitions = map[State][]State{
	StateReceived:          {StateSignatureVerified, StateSignatureRejected},
	StateSignatureVerified: {StateDispatched},
	StateDispatched:        {StateHandled, StateHandlerFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Delivery tracks one request through the lifecycle.
type Delivery struct {
	Provider   string
	EventID    string
	Kind       Kind
	State      State
	ReceivedAt time.Time
	history    []State
}

func newDelivery(provider string, at time.Time) *Delivery {
	return &Delivery{
		Provider:   provider,
		State:      StateReceived,
		ReceivedAt: at,
		history:    []State{StateReceived},
	}
}

// To moves the delivery to next or returns ErrIllegalTransition.
func (d *Delivery) To(next State) error {
	if !slices.Contains(transitions[d.State], next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.State, next)
	}
	d.State = next
	d.history = append(d.history, next)
	return nil
}

// History lists every state the delivery passed through, in order.
func (d *Delivery) History() []State {
	return slices.Clone(d.history)
}
