package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists events. Implementations must make Insert atomic and must
// order by event timestamp, not by insertion.
type Store interface {
	Insert(ctx context.Context, e Event) error
	// Last returns the event of kind with the greatest timestamp, or ErrNotFound.
	Last(ctx context.Context, userID uuid.UUID, kind Kind) (Event, error)
	// CountSince counts events of kind with timestamp >= since.
	CountSince(ctx context.Context, userID uuid.UUID, kind Kind, since time.Time) (int, error)
}
