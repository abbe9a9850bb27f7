// Package clock abstracts time so window and retry logic can be tested
// without sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock tells the time and waits.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Fake is a manually driven clock. After does not block: it moves the clock
// forward by d and returns an already fired channel, so code that waits on it
// runs to completion deterministically while observing the elapsed time.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waited  []time.Duration
	onAfter func(now time.Time)
}

// NewFake returns a fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

func (c *Fake) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.waited = append(c.waited, d)
	now, hook := c.now, c.onAfter
	c.mu.Unlock()

	if hook != nil {
		hook(now)
	}

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// OnAfter registers fn to run after every After call with the new time.
// Tests use it to make state change while the code under test is waiting.
func (c *Fake) OnAfter(fn func(now time.Time)) {
	c.mu.Lock()
	c.onAfter = fn
	c.mu.Unlock()
}

// Waits returns the durations passed to After so far.
func (c *Fake) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waited...)
}
