package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/dmitrymomot/quotaguard/pkg/logger"
)

// SubscriptionGateway is the provider API used to cancel subscriptions.
type SubscriptionGateway interface {
	ActiveSubscriptions(ctx context.Context, customerID string) ([]string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// StripeSubscriptions talks to the Stripe subscriptions API with its own key.
type StripeSubscriptions struct {
	client *subscription.Client
}

func NewStripeSubscriptions(apiKey string) *StripeSubscriptions {
	return &StripeSubscriptions{client: &subscription.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: apiKey,
	}}
}

func (s *StripeSubscriptions) ActiveSubscriptions(ctx context.Context, customerID string) ([]string, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	var ids []string
	it := s.client.List(params)
	for it.Next() {
		ids = append(ids, it.Subscription().ID)
	}
	if err := it.Err(); err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	return ids, nil
}

func (s *StripeSubscriptions) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := s.client.Cancel(subscriptionID, params); err != nil {
		return errors.Join(ErrProviderRequest, err)
	}
	return nil
}

// Canceller cancels every active provider subscription of a user and clears
// the stored flag. Paid intervals are left alone, so access continues until
// the last paid period ends.
type Canceller struct {
	links   LinkStore
	gateway SubscriptionGateway
	log     *slog.Logger
}

func NewCanceller(links LinkStore, gateway SubscriptionGateway, log *slog.Logger) *Canceller {
	if log == nil {
		log = slog.Default()
	}
	return &Canceller{links: links, gateway: gateway, log: log}
}

// CancelAll returns how many subscriptions were cancelled.
// It returns ErrLinkNotFound when the user never completed a checkout.
func (c *Canceller) CancelAll(ctx context.Context, userID uuid.UUID) (int, error) {
	link, err := c.links.Link(ctx, userID)
	if err != nil {
		return 0, err
	}
	if link.CustomerID == "" {
		return 0, ErrLinkNotFound
	}

	ids, err := c.gateway.ActiveSubscriptions(ctx, link.CustomerID)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		if err := c.gateway.CancelSubscription(ctx, id); err != nil {
			c.log.ErrorContext(ctx, "failed to cancel subscription",
				logger.Component("billing"),
				logger.UserID(userID),
				logger.CustomerID(link.CustomerID),
				slog.String("subscription_id", id),
				logger.Error(err),
			)
			return cancelled, fmt.Errorf("%w %s: %w", ErrCancelFailed, id, err)
		}
		cancelled++
	}

	if err := c.links.SetSubscriptionFlag(ctx, userID, false); err != nil {
		return cancelled, fmt.Errorf("clear subscription flag: %w", err)
	}

	c.log.InfoContext(ctx, "subscriptions cancelled",
		logger.Component("billing"),
		logger.UserID(userID),
		logger.CustomerID(link.CustomerID),
		slog.Int("count", cancelled),
	)
	return cancelled, nil
}
