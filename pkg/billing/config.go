package billing

import (
	"fmt"
	"strings"
)

// Config selects the provider used for subscription management.
type Config struct {
	Provider      string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	StripeAPIKey  string `env:"STRIPE_API_KEY"`
	PaddleAPIKey  string `env:"PADDLE_API_KEY"`
	PaddleSandbox bool   `env:"PADDLE_SANDBOX" envDefault:"false"`
}

// NewGateway builds the SubscriptionGateway selected by cfg.Provider.
func NewGateway(cfg Config) (SubscriptionGateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case "stripe":
		if cfg.StripeAPIKey == "" {
			return nil, fmt.Errorf("%w: STRIPE_API_KEY is required", ErrProviderRequest)
		}
		return NewStripeSubscriptions(cfg.StripeAPIKey), nil
	case "paddle":
		if cfg.PaddleAPIKey == "" {
			return nil, fmt.Errorf("%w: PADDLE_API_KEY is required", ErrProviderRequest)
		}
		return NewPaddleSubscriptions(cfg.PaddleAPIKey, cfg.PaddleSandbox)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrProviderRequest, cfg.Provider)
	}
}
