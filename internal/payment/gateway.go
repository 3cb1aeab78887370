package payment

import (
	"context"
	"errors"
)

// Provider-side payment status of a paid checkout session
const StatusPaid = "paid"

// EventCheckoutCompleted is the webhook event that carries a finished checkout
const EventCheckoutCompleted = "checkout.session.completed"

var (
	ErrSessionNotFound  = errors.New("payment session not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotPaid          = errors.New("payment session has no captured payment")
)

// SessionRequest describes the hosted checkout to open for one question.
// SuccessURL may contain the {CHECKOUT_SESSION_ID} placeholder.
type SessionRequest struct {
	CorrelationID string
	ProductName   string
	Description   string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Session is the provider's view of a checkout session
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	CorrelationID   string
	AmountTotal     int64
	Currency        string
	PaymentIntentID string
}

// IsPaid reports whether the provider captured the payment
func (s *Session) IsPaid() bool {
	return s != nil && s.PaymentStatus == StatusPaid
}

// Refund is the result of a refund request
type Refund struct {
	ID          string
	SessionID   string
	AmountCents int64
	Status      string
}

// WebhookEvent is a verified provider callback
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// Gateway is the hosted checkout provider consumed by the question lifecycle
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	Refund(ctx context.Context, sessionID string, amountCents int64) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
