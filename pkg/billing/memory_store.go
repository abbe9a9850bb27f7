package billing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	links      map[uuid.UUID]Link
	byCustomer map[string]uuid.UUID
	intervals  map[uuid.UUID][]PaymentInterval
	invoices   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        func() time.Time { return time.Now().UTC() },
		links:      make(map[uuid.UUID]Link),
		byCustomer: make(map[string]uuid.UUID),
		intervals:  make(map[uuid.UUID][]PaymentInterval),
		invoices:   make(map[string]struct{}),
	}
}

func (s *MemoryStore) LinkCustomer(_ context.Context, userID uuid.UUID, customerID string) error {
	if customerID == "" {
		return ErrMissingCustomerID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byCustomer[customerID]; ok && owner != userID {
		return ErrCustomerConflict
	}

	now := s.now()
	link, ok := s.links[userID]
	switch {
	case !ok:
		link = Link{UserID: userID, CreatedAt: now}
	case link.CustomerID == customerID:
		return nil
	case link.CustomerID != "":
		return ErrCustomerConflict
	}

	link.CustomerID = customerID
	link.UpdatedAt = now
	s.links[userID] = link
	s.byCustomer[customerID] = userID
	return nil
}

func (s *MemoryStore) Link(_ context.Context, userID uuid.UUID) (Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[userID]
	if !ok {
		return Link{}, ErrLinkNotFound
	}
	return link, nil
}

func (s *MemoryStore) UserByCustomer(_ context.Context, customerID string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byCustomer[customerID]
	if !ok {
		return uuid.Nil, ErrLinkNotFound
	}
	return userID, nil
}

func (s *MemoryStore) SetSubscriptionFlag(_ context.Context, userID uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[userID]
	if !ok {
		return ErrLinkNotFound
	}
	link.HasActiveSubscription = active
	link.UpdatedAt = s.now()
	s.links[userID] = link
	return nil
}

func (s *MemoryStore) InsertInterval(_ context.Context, p PaymentInterval) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.invoices[p.InvoiceID]; dup {
		return ErrDuplicateInvoice
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.invoices[p.InvoiceID] = struct{}{}
	s.intervals[p.UserID] = append(s.intervals[p.UserID], p)
	return nil
}

func (s *MemoryStore) ActiveInterval(_ context.Context, userID uuid.UUID, at time.Time) (PaymentInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  PaymentInterval
		found bool
	)
	for _, p := range s.intervals[userID] {
		if p.Contains(at) && (!found || p.End.After(best.End)) {
			best, found = p, true
		}
	}
	if !found {
		return PaymentInterval{}, ErrNoActiveInterval
	}
	return best, nil
}

func (s *MemoryStore) Intervals(_ context.Context, userID uuid.UUID) ([]PaymentInterval, error) {
	s.mu.RLock()
	out := slices.Clone(s.intervals[userID])
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b PaymentInterval) int { return b.End.Compare(a.End) })
	return out, nil
}
