package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
)

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) ActiveSubscriptions(ctx context.Context, customerID string) ([]string, error) {
	args := m.Called(ctx, customerID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *gatewayMock) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func TestCanceller(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	linked := func(t *testing.T) (*billing.MemoryStore, uuid.UUID) {
		t.Helper()
		s := billing.NewMemoryStore()
		user := uuid.New()
		require.NoError(t, s.LinkCustomer(ctx, user, "cus_X"))
		require.NoError(t, s.SetSubscriptionFlag(ctx, user, true))
		return s, user
	}

	t.Run("cancels all and clears the flag", func(t *testing.T) {
		t.Parallel()
		s, user := linked(t)
		gw := &gatewayMock{}
		gw.On("ActiveSubscriptions", mock.Anything, "cus_X").Return([]string{"sub_1", "sub_2"}, nil)
		gw.On("CancelSubscription", mock.Anything, "sub_1").Return(nil)
		gw.On("CancelSubscription", mock.Anything, "sub_2").Return(nil)

		n, err := billing.NewCanceller(s, gw, logger.Discard()).CancelAll(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		gw.AssertExpectations(t)

		link, err := s.Link(ctx, user)
		require.NoError(t, err)
		assert.False(t, link.HasActiveSubscription)
	})

	t.Run("nothing to cancel still clears the flag", func(t *testing.T) {
		t.Parallel()
		s, user := linked(t)
		gw := &gatewayMock{}
		gw.On("ActiveSubscriptions", mock.Anything, "cus_X").Return(nil, nil)

		n, err := billing.NewCanceller(s, gw, logger.Discard()).CancelAll(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, n)

		link, _ := s.Link(ctx, user)
		assert.False(t, link.HasActiveSubscription)
	})

	t.Run("provider failure keeps the flag", func(t *testing.T) {
		t.Parallel()
		s, user := linked(t)
		gw := &gatewayMock{}
		gw.On("ActiveSubscriptions", mock.Anything, "cus_X").Return([]string{"sub_1"}, nil)
		gw.On("CancelSubscription", mock.Anything, "sub_1").Return(errors.New("card_declined"))

		n, err := billing.NewCanceller(s, gw, logger.Discard()).CancelAll(ctx, user)
		assert.ErrorIs(t, err, billing.ErrCancelFailed)
		assert.Zero(t, n)

		link, _ := s.Link(ctx, user)
		assert.True(t, link.HasActiveSubscription)
	})

	t.Run("unlinked user", func(t *testing.T) {
		t.Parallel()
		gw := &gatewayMock{}
		_, err := billing.NewCanceller(billing.NewMemoryStore(), gw, logger.Discard()).CancelAll(ctx, uuid.New())
		assert.ErrorIs(t, err, billing.ErrLinkNotFound)
		gw.AssertNotCalled(t, "ActiveSubscriptions", mock.Anything, mock.Anything)
	})
}
