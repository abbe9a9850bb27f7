package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per user and kind, scored by the event
// timestamp in milliseconds, plus one string key per event body.
// Both keys are written in a single MULTI so an event is never half recorded.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the namespace of every key written by the store.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "quotaguard:events"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) indexKey(userID uuid.UUID, kind Kind) string {
	return s.prefix + ":" + userID.String() + ":" + string(kind)
}

func (s *RedisStore) eventKey(id string) string {
	return s.prefix + ":event:" + id
}

func (s *RedisStore) Insert(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	id := e.ID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.eventKey(id), body, 0)
		pipe.ZAdd(ctx, s.indexKey(e.UserID, e.Kind), redis.Z{
			Score:  float64(e.Timestamp.UnixMicro()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *RedisStore) Last(ctx context.Context, userID uuid.UUID, kind Kind) (Event, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(userID, kind), 0, 0).Result()
	if err != nil {
		return Event{}, fmt.Errorf("read event index: %w", err)
	}
	if len(ids) == 0 {
		return Event{}, ErrNotFound
	}

	body, err := s.client.Get(ctx, s.eventKey(ids[0])).Bytes()
	if errors.Is(err, redis.Nil) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}

	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

func (s *RedisStore) CountSince(ctx context.Context, userID uuid.UUID, kind Kind, since time.Time) (int, error) {
	n, err := s.client.ZCount(ctx, s.indexKey(userID, kind), strconv.FormatInt(since.UnixMicro(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}
