package auth

import "time"

// Config holds the secrets of both authenticators.
type Config struct {
	APIKeySecret  string        `env:"API_KEY_SECRET,required"`
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}
