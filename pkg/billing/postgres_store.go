package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotaguard/pkg/pg"
)

// PostgresStore keeps links in billing_links and intervals in payment_intervals.
type PostgresStore struct {
	db pg.DB
}

func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// The COALESCE keeps the first customer id; RETURNING tells us which one won.
const linkCustomerQuery = `
INSERT INTO billing_links (user_id, provider_customer_id)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE
SET provider_customer_id = COALESCE(billing_links.provider_customer_id, EXCLUDED.provider_customer_id),
    updated_at = now()
RETURNING provider_customer_id`

func (s *PostgresStore) LinkCustomer(ctx context.Context, userID uuid.UUID, customerID string) error {
	if customerID == "" {
		return ErrMissingCustomerID
	}

	var stored string
	err := s.db.QueryRow(ctx, linkCustomerQuery, userID, customerID).Scan(&stored)
	switch {
	case pg.IsDuplicateKeyError(err):
		// customer id already belongs to another user
		return ErrCustomerConflict
	case err != nil:
		return fmt.Errorf("link customer: %w", err)
	case stored != customerID:
		return ErrCustomerConflict
	}
	return nil
}

const selectLinkQuery = `
SELECT user_id, COALESCE(provider_customer_id, ''), has_active_subscription, created_at, updated_at
FROM billing_links
WHERE user_id = $1`

func (s *PostgresStore) Link(ctx context.Context, userID uuid.UUID) (Link, error) {
	var l Link
	err := s.db.QueryRow(ctx, selectLinkQuery, userID).
		Scan(&l.UserID, &l.CustomerID, &l.HasActiveSubscription, &l.CreatedAt, &l.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return Link{}, ErrLinkNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("select link: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) UserByCustomer(ctx context.Context, customerID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT user_id FROM billing_links WHERE provider_customer_id = $1`, customerID).Scan(&userID)
	if pg.IsNotFoundError(err) {
		return uuid.Nil, ErrLinkNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("select user by customer: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) SetSubscriptionFlag(ctx context.Context, userID uuid.UUID, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE billing_links SET has_active_subscription = $2, updated_at = now() WHERE user_id = $1`,
		userID, active,
	)
	if err != nil {
		return fmt.Errorf("update subscription flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

const insertIntervalQuery = `
INSERT INTO payment_intervals (
    id, user_id, provider_customer_id, provider_invoice_id, amount, currency,
    billing_reason, interval_start, interval_end, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *PostgresStore) InsertInterval(ctx context.Context, p PaymentInterval) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertIntervalQuery,
		p.ID, p.UserID, p.CustomerID, p.InvoiceID, p.Amount, p.Currency,
		p.BillingReason, p.Start, p.End, p.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrDuplicateInvoice
	}
	if err != nil {
		return fmt.Errorf("insert interval: %w", err)
	}
	return nil
}

const intervalColumns = `id, user_id, provider_customer_id, provider_invoice_id, amount, currency,
    billing_reason, interval_start, interval_end, created_at`

const activeIntervalQuery = `
SELECT ` + intervalColumns + `
FROM payment_intervals
WHERE user_id = $1 AND interval_start <= $2 AND interval_end >= $2
ORDER BY interval_end DESC
LIMIT 1`

func (s *PostgresStore) ActiveInterval(ctx context.Context, userID uuid.UUID, at time.Time) (PaymentInterval, error) {
	var p PaymentInterval
	err := s.db.QueryRow(ctx, activeIntervalQuery, userID, at).Scan(
		&p.ID, &p.UserID, &p.CustomerID, &p.InvoiceID, &p.Amount, &p.Currency,
		&p.BillingReason, &p.Start, &p.End, &p.CreatedAt,
	)
	if pg.IsNotFoundError(err) {
		return PaymentInterval{}, ErrNoActiveInterval
	}
	if err != nil {
		return PaymentInterval{}, fmt.Errorf("select active interval: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Intervals(ctx context.Context, userID uuid.UUID) ([]PaymentInterval, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+intervalColumns+` FROM payment_intervals WHERE user_id = $1 ORDER BY interval_end DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select intervals: %w", err)
	}
	defer rows.Close()

	var out []PaymentInterval
	for rows.Next() {
		var p PaymentInterval
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.CustomerID, &p.InvoiceID, &p.Amount, &p.Currency,
			&p.BillingReason, &p.Start, &p.End, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return out, nil
}
