package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/clock"
)

// Ledger is the append-only event log used for quota accounting and
// freshness checks. It holds no locks: counts are snapshots of the store at
// query time, and concurrent writers may commit in any order.
type Ledger struct {
	store Store
	clock clock.Clock
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for timestamps and windows.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// New creates a ledger on top of store.
func New(store Store, opts ...Option) *Ledger {
	if store == nil {
		panic("events: nil store")
	}
	l := &Ledger{store: store, clock: clock.Real{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an event of kind for userID stamped with the current time,
// truncated to the microsecond precision every store keeps.
func (l *Ledger) Record(ctx context.Context, kind Kind, userID uuid.UUID, metadata Metadata) error {
	if kind == "" {
		return ErrInvalidKind
	}
	if userID == uuid.Nil {
		return ErrInvalidUser
	}

	e := Event{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Metadata:  metadata,
		Timestamp: l.clock.Now().Truncate(time.Microsecond),
	}
	if err := l.store.Insert(ctx, e); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// Last returns the most recent event of kind for userID, or ErrNotFound.
func (l *Ledger) Last(ctx context.Context, kind Kind, userID uuid.UUID) (Event, error) {
	if kind == "" {
		return Event{}, ErrInvalidKind
	}
	e, err := l.store.Last(ctx, userID, kind)
	switch {
	case errors.Is(err, ErrNotFound):
		return Event{}, ErrNotFound
	case err != nil:
		return Event{}, errors.Join(ErrStorage, err)
	}
	return e, nil
}

// CountInWindow counts events of kind for userID with timestamp >= now - hours.
func (l *Ledger) CountInWindow(ctx context.Context, kind Kind, userID uuid.UUID, hours int) (int, error) {
	if kind == "" {
		return 0, ErrInvalidKind
	}
	if hours < 1 {
		return 0, ErrInvalidWindow
	}

	since := windowStart(l.clock.Now(), hours)
	n, err := l.store.CountSince(ctx, userID, kind, since)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

// Now exposes the ledger clock so callers compare against the same time base.
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

// windowStart is now minus hours, rounded up to the microsecond so stores
// comparing at microsecond precision never count an older event.
func windowStart(now time.Time, hours int) time.Time {
	since := now.Add(-time.Duration(hours) * time.Hour)
	if t := since.Truncate(time.Microsecond); t.Before(since) {
		return t.Add(time.Microsecond)
	}
	return since
}
