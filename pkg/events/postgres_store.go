package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/pg"
)

// PostgresStore keeps events in the events table (see internal/db/migrations).
type PostgresStore struct {
	db pg.DB
}

func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertEventQuery = `
INSERT INTO events (id, user_id, kind, metadata, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (s *PostgresStore) Insert(ctx context.Context, e Event) error {
	meta, err := json.Marshal(orEmpty(e.Metadata))
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := s.db.Exec(ctx, insertEventQuery, e.ID, e.UserID, string(e.Kind), meta, e.Timestamp); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const lastEventQuery = `
SELECT id, user_id, kind, metadata, created_at
FROM events
WHERE user_id = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT 1`

func (s *PostgresStore) Last(ctx context.Context, userID uuid.UUID, kind Kind) (Event, error) {
	var (
		e    Event
		meta []byte
	)
	err := s.db.QueryRow(ctx, lastEventQuery, userID, string(kind)).
		Scan(&e.ID, &e.UserID, &e.Kind, &meta, &e.Timestamp)
	if pg.IsNotFoundError(err) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("select last event: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return Event{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return e, nil
}

const countEventsQuery = `
SELECT count(*)
FROM events
WHERE user_id = $1 AND kind = $2 AND created_at >= $3`

func (s *PostgresStore) CountSince(ctx context.Context, userID uuid.UUID, kind Kind, since time.Time) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, countEventsQuery, userID, string(kind), since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func orEmpty(m Metadata) Metadata {
	if m == nil {
		return Metadata{}
	}
	return m
}
