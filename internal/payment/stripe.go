package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const metadataCorrelationKey = "question_id"

// StripeGateway talks to Stripe Checkout
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway bound to one secret key
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sc:            client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CreateSession opens a one-item payment-mode checkout session
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.CorrelationID),
	}
	params.Context = ctx
	params.AddMetadata(metadataCorrelationKey, req.CorrelationID)

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		log.Printf("[PAYMENT] Stripe checkout error for %s: %v", req.CorrelationID, err)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromCheckoutSession(s), nil
}

// GetSession retrieves a session with its payment intent expanded
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrSessionNotFound
		}
		log.Printf("[PAYMENT] Stripe session retrieval error for %s: %v", sessionID, err)
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return fromCheckoutSession(s), nil
}

// Refund refunds the payment intent behind a paid session
func (g *StripeGateway) Refund(ctx context.Context, sessionID string, amountCents int64) (*Refund, error) {
	session, err := g.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPaid() || session.PaymentIntentID == "" {
		return nil, ErrNotPaid
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(session.PaymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.AddMetadata(metadataCorrelationKey, session.CorrelationID)

	r, err := g.sc.Refunds.New(params)
	if err != nil {
		log.Printf("[PAYMENT] Stripe refund error for %s: %v", sessionID, err)
		return nil, fmt.Errorf("create refund: %w", err)
	}

	return &Refund{
		ID:          r.ID,
		SessionID:   sessionID,
		AmountCents: r.Amount,
		Status:      string(r.Status),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the session id
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		log.Printf("[PAYMENT] No Stripe webhook secret configured; rejecting webhook")
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type == EventCheckoutCompleted && event.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = cs.ID
	}
	return out, nil
}

func fromCheckoutSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		CorrelationID: s.Metadata[metadataCorrelationKey],
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if out.CorrelationID == "" {
		out.CorrelationID = s.ClientReferenceID
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
