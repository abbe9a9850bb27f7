package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a usage or business event tracked per user.
type Kind string

const (
	KindFetchData   Kind = "fetch_data"
	KindUpdateData  Kind = "update_data"
	KindUpdateStats Kind = "update_stats"
)

func (k Kind) String() string { return string(k) }

// Metadata is free-form context stored with an event.
type Metadata map[string]any

// Event records that an action happened for a user at a point in time.
// Events are append-only and ordered by Timestamp, never by ID.
type Event struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
