package webhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/webhook"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type brokenLinks struct {
	billing.LinkStore
	calls int
}

func (b *brokenLinks) UserByCustomer(context.Context, string) (uuid.UUID, error) {
	b.calls++
	return uuid.Nil, errors.New("connection reset")
}

func TestLinkageResolver(t *testing.T) {
	t.Parallel()

	t.Run("found on first attempt", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		userID := uuid.New()
		require.NoError(t, store.LinkCustomer(context.Background(), userID, "cus_X"))

		clk := clock.NewFake(t0)
		r := webhook.NewLinkageResolver(store, 5, webhook.FixedBackoff{Interval: 250 * time.Millisecond}, webhook.WithLinkageClock(clk))

		got, err := r.Resolve(context.Background(), "cus_X")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.Empty(t, clk.Waits())
	})

	t.Run("link written while waiting is picked up", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		userID := uuid.New()
		clk := clock.NewFake(t0)

		waits := 0
		clk.OnAfter(func(time.Time) {
			waits++
			if waits == 2 {
				require.NoError(t, store.LinkCustomer(context.Background(), userID, "cus_X"))
			}
		})

		r := webhook.NewLinkageResolver(store, 5, webhook.FixedBackoff{Interval: 250 * time.Millisecond}, webhook.WithLinkageClock(clk))
		got, err := r.Resolve(context.Background(), "cus_X")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, clk.Waits())
	})

	t.Run("budget exhausted", func(t *testing.T) {
		t.Parallel()
		clk := clock.NewFake(t0)
		r := webhook.NewLinkageResolver(billing.NewMemoryStore(), 5, webhook.FixedBackoff{Interval: 250 * time.Millisecond}, webhook.WithLinkageClock(clk))

		_, err := r.Resolve(context.Background(), "cus_missing")
		require.ErrorIs(t, err, webhook.ErrLinkageUnresolved)
		assert.Len(t, clk.Waits(), 4)
		assert.Equal(t, t0.Add(time.Second), clk.Now())
	})

	t.Run("stops before the context deadline", func(t *testing.T) {
		t.Parallel()
		clk := clock.NewFake(t0)
		r := webhook.NewLinkageResolver(billing.NewMemoryStore(), 20, webhook.FixedBackoff{Interval: 3 * time.Second}, webhook.WithLinkageClock(clk))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := r.Resolve(ctx, "cus_missing")
		require.ErrorIs(t, err, webhook.ErrLinkageDeadline)
		assert.Len(t, clk.Waits(), 3)
	})

	t.Run("deadline budget ignores clock jumps", func(t *testing.T) {
		t.Parallel()
		clk := clock.NewFake(t0)
		clk.OnAfter(func(time.Time) { clk.Advance(time.Hour) })
		r := webhook.NewLinkageResolver(billing.NewMemoryStore(), 20, webhook.FixedBackoff{Interval: 3 * time.Second}, webhook.WithLinkageClock(clk))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := r.Resolve(ctx, "cus_missing")
		require.ErrorIs(t, err, webhook.ErrLinkageDeadline)
		assert.Len(t, clk.Waits(), 3, "only the delays waited spend the budget")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Real clock: the cancelled context must win over the pending wait.
		r := webhook.NewLinkageResolver(billing.NewMemoryStore(), 3, webhook.FixedBackoff{Interval: time.Hour})
		_, err := r.Resolve(ctx, "cus_missing")
		require.ErrorIs(t, err, webhook.ErrLinkageDeadline)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("storage errors are not retried", func(t *testing.T) {
		t.Parallel()
		links := &brokenLinks{}
		clk := clock.NewFake(t0)
		r := webhook.NewLinkageResolver(links, 5, webhook.FixedBackoff{Interval: time.Second}, webhook.WithLinkageClock(clk))

		_, err := r.Resolve(context.Background(), "cus_X")
		require.Error(t, err)
		assert.NotErrorIs(t, err, webhook.ErrLinkageUnresolved)
		assert.Equal(t, 1, links.calls)
		assert.Empty(t, clk.Waits())
	})
}
