package apikey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/clock"
)

// Key is the stored record of an issued key. The raw key is never stored.
type Key struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiredAt *time.Time
}

// Active reports whether the key was not expired at t.
func (k Key) Active(t time.Time) bool {
	return k.ExpiredAt == nil || t.Before(*k.ExpiredAt)
}

// Store persists key records.
type Store interface {
	Create(ctx context.Context, k Key) error
	Get(ctx context.Context, id uuid.UUID) (Key, error)
	// ExpireAll marks every active key of userID expired at t.
	ExpireAll(ctx context.Context, userID uuid.UUID, t time.Time) (int, error)
}

// Service issues, rotates and verifies keys.
type Service struct {
	store  Store
	secret []byte
	clock  clock.Clock
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewService(store Store, secret string, opts ...ServiceOption) *Service {
	if secret == "" {
		panic("apikey.NewService: secret is required")
	}
	s := &Service{store: store, secret: []byte(secret), clock: clock.Real{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue expires the user's previous keys and returns a new raw key.
// The raw key cannot be recovered later.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (string, Key, error) {
	now := s.clock.Now()
	if _, err := s.store.ExpireAll(ctx, userID, now); err != nil {
		return "", Key{}, fmt.Errorf("expire previous keys: %w", err)
	}

	k := Key{ID: uuid.New(), UserID: userID, CreatedAt: now}
	raw, err := encode(claims{KeyID: k.ID, UserID: userID}, s.secret)
	if err != nil {
		return "", Key{}, fmt.Errorf("encode key: %w", err)
	}
	if err := s.store.Create(ctx, k); err != nil {
		return "", Key{}, fmt.Errorf("store key: %w", err)
	}
	return raw, k, nil
}

// Verify returns the owner of raw. Credential problems wrap the auth
// credential errors; store failures are returned as they are.
func (s *Service) Verify(ctx context.Context, raw string) (uuid.UUID, error) {
	c, err := decode(raw, s.secret)
	if err != nil {
		return uuid.Nil, err
	}

	k, err := s.store.Get(ctx, c.KeyID)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return uuid.Nil, ErrUnknownKey
	case err != nil:
		return uuid.Nil, fmt.Errorf("load key: %w", err)
	case k.UserID != c.UserID:
		return uuid.Nil, ErrUnknownKey
	case !k.Active(s.clock.Now()):
		return uuid.Nil, ErrKeyExpired
	}
	return k.UserID, nil
}
