package webhook

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

// Config is read from the environment by config.Load.
type Config struct {
	Provider            string        `env:"BILLING_PROVIDER" envDefault:"stripe"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	StripeTolerance     time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
	PaddleWebhookSecret string        `env:"PADDLE_WEBHOOK_SECRET"`

	LinkAttempts   int           `env:"WEBHOOK_LINK_ATTEMPTS" envDefault:"20"`
	LinkDelay      time.Duration `env:"WEBHOOK_LINK_DELAY" envDefault:"250ms"`
	HandlerTimeout time.Duration `env:"WEBHOOK_HANDLER_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes   int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Validate implements config.Validator.
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderStripe:
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET is required", ErrUnsupportedProvider)
		}
	case ProviderPaddle:
		if c.PaddleWebhookSecret == "" {
			return fmt.Errorf("%w: PADDLE_WEBHOOK_SECRET is required", ErrUnsupportedProvider)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
	if c.LinkAttempts < 1 {
		return fmt.Errorf("WEBHOOK_LINK_ATTEMPTS must be positive, got %d", c.LinkAttempts)
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_HANDLER_TIMEOUT must be positive, got %s", c.HandlerTimeout)
	}
	return nil
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderStripe:
		return NewStripeProvider(cfg.StripeWebhookSecret, WithStripeTolerance(cfg.StripeTolerance)), nil
	case ProviderPaddle:
		return NewPaddleProvider(cfg.PaddleWebhookSecret), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
