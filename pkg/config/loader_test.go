package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/pkg/config"
)

type retryConfig struct {
	Attempts int           `env:"ATTEMPTS" envDefault:"20"`
	Delay    time.Duration `env:"DELAY" envDefault:"250ms"`
	Secret   string        `env:"SECRET,required"`
}

func (c *retryConfig) Validate() error {
	if c.Attempts < 1 {
		return errors.New("attempts must be positive")
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults and prefix", func(t *testing.T) {
		t.Parallel()
		var cfg retryConfig
		err := config.Load(&cfg,
			config.WithPrefix("LINK_"),
			config.WithEnvironment(map[string]string{"LINK_SECRET": "s3cr3t"}),
		)
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Attempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Delay)
		assert.Equal(t, "s3cr3t", cfg.Secret)
	})

	t.Run("missing required variable", func(t *testing.T) {
		t.Parallel()
		var cfg retryConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("validation runs after parsing", func(t *testing.T) {
		t.Parallel()
		var cfg retryConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{"SECRET": "x", "ATTEMPTS": "0"}))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, config.Load[retryConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		t.Parallel()
		var cfg retryConfig
		assert.Panics(t, func() {
			config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
		})
	})
}
