package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

const (
	paddleSignatureHeader = "Paddle-Signature"
	paddleUserDataKey     = "app_user_id"

	paddleTransactionPaid      = "transaction.paid"
	paddleTransactionCompleted = "transaction.completed"
)

// PaddleProvider verifies Paddle Billing deliveries.
// transaction.paid carries the checkout linkage through custom data;
// transaction.completed carries the billed period.
type PaddleProvider struct {
	verifier *paddle.WebhookVerifier
}

func NewPaddleProvider(secret string) *PaddleProvider {
	return &PaddleProvider{verifier: paddle.NewWebhookVerifier(secret)}
}

func (p *PaddleProvider) Name() string { return ProviderPaddle }

type paddleNotification struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Data      paddleTransaction `json:"data"`
}

type paddleTransaction struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customer_id"`
	Origin       string            `json:"origin"`
	CurrencyCode string            `json:"currency_code"`
	CustomData   map[string]any    `json:"custom_data"`
	CreatedAt    time.Time         `json:"created_at"`
	Period       *paddlePeriod     `json:"billing_period"`
	Details      paddleTransDetail `json:"details"`
}

type paddlePeriod struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type paddleTransDetail struct {
	Totals struct {
		GrandTotal string `json:"grand_total"`
	} `json:"totals"`
}

func (p *PaddleProvider) Verify(ctx context.Context, payload []byte, header http.Header) (Event, error) {
	sig := header.Get(paddleSignatureHeader)
	if sig == "" {
		return Event{}, ErrMissingSignature
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return Event{}, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set(paddleSignatureHeader, sig)

	ok, err := p.verifier.Verify(req)
	if err != nil {
		return Event{}, errors.Join(ErrSignature, err)
	}
	if !ok {
		return Event{}, ErrSignature
	}

	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := Event{
		ID:           n.EventID,
		Kind:         Kind(n.EventType),
		ProviderKind: n.EventType,
		Raw:          payload,
	}

	switch n.EventType {
	case paddleTransactionPaid:
		userID, _ := n.Data.CustomData[paddleUserDataKey].(string)
		out.Kind = KindCheckoutCompleted
		out.Checkout = &Checkout{UserID: userID, CustomerID: n.Data.CustomerID}

	case paddleTransactionCompleted:
		amount, _ := strconv.ParseInt(n.Data.Details.Totals.GrandTotal, 10, 64)
		pay := &Payment{
			CustomerID:    n.Data.CustomerID,
			InvoiceID:     n.Data.ID,
			Amount:        amount,
			Currency:      n.Data.CurrencyCode,
			BillingReason: n.Data.Origin,
			CreatedAt:     n.Data.CreatedAt,
		}
		if n.Data.Period != nil {
			pay.PeriodStart = n.Data.Period.StartsAt
			pay.PeriodEnd = n.Data.Period.EndsAt
		}
		out.Kind = KindPaymentSucceeded
		out.Payment = pay
	}

	return out, nil
}
