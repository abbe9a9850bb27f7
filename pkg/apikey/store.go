package apikey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/pg"
)

// MemoryStore keeps key records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[uuid.UUID]Key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[uuid.UUID]Key)}
}

func (s *MemoryStore) Create(_ context.Context, k Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.ID] = k
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return Key{}, ErrKeyNotFound
	}
	return k, nil
}

func (s *MemoryStore) ExpireAll(_ context.Context, userID uuid.UUID, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, k := range s.keys {
		if k.UserID == userID && k.ExpiredAt == nil {
			at := t
			k.ExpiredAt = &at
			s.keys[id] = k
			n++
		}
	}
	return n, nil
}

// PostgresStore keeps key records in the api_keys table.
type PostgresStore struct {
	db pg.DB
}

func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, k Key) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, created_at, expired_at) VALUES ($1, $2, $3, $4)`,
		k.ID, k.UserID, k.CreatedAt, k.ExpiredAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Key, error) {
	var k Key
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, expired_at FROM api_keys WHERE id = $1`, id,
	).Scan(&k.ID, &k.UserID, &k.CreatedAt, &k.ExpiredAt)
	if pg.IsNotFoundError(err) {
		return Key{}, ErrKeyNotFound
	}
	if err != nil {
		return Key{}, fmt.Errorf("select api key: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) ExpireAll(ctx context.Context, userID uuid.UUID, t time.Time) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET expired_at = $2 WHERE user_id = $1 AND expired_at IS NULL`,
		userID, t,
	)
	if err != nil {
		return 0, fmt.Errorf("expire api keys: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
