package billing

import (
	"context"
	"errors"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleSubscriptions talks to the Paddle Billing subscriptions API.
type PaddleSubscriptions struct {
	client *paddle.SDK
}

// NewPaddleSubscriptions creates a gateway for the live or sandbox environment.
func NewPaddleSubscriptions(apiKey string, sandbox bool) (*PaddleSubscriptions, error) {
	var (
		client *paddle.SDK
		err    error
	)
	if sandbox {
		client, err = paddle.NewSandbox(apiKey)
	} else {
		client, err = paddle.New(apiKey)
	}
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	return &PaddleSubscriptions{client: client}, nil
}

func (p *PaddleSubscriptions) ActiveSubscriptions(ctx context.Context, customerID string) ([]string, error) {
	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
		Status:     []string{string(paddle.SubscriptionStatusActive)},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}

	var ids []string
	err = res.Iter(ctx, func(s *paddle.Subscription) (bool, error) {
		ids = append(ids, s.ID)
		return true, nil
	})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	return ids, nil
}

func (p *PaddleSubscriptions) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromImmediately),
	})
	if err != nil {
		return errors.Join(ErrProviderRequest, err)
	}
	return nil
}
