package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// CheckoutSessionPlaceholder is replaced by the session id in redirect URLs
const CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// MockGateway is an in-process Gateway for development and tests.
// Sessions live only as long as the value; nothing is shared between instances.
type MockGateway struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	refunds  []Refund
	autoPay  bool
}

// NewMockGateway creates a mock gateway. With autoPay every new session is
// reported as paid, which mirrors a checkout the user completed instantly.
func NewMockGateway(autoPay bool) *MockGateway {
	return &MockGateway{
		sessions: make(map[string]*Session),
		autoPay:  autoPay,
	}
}

// CreateSession stores a new session and returns a redirect that skips the provider
func (g *MockGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	id := "cs_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	status := "unpaid"
	if g.autoPay {
		status = StatusPaid
	}

	session := &Session{
		ID:            id,
		URL:           mockRedirect(req.SuccessURL, id),
		PaymentStatus: status,
		CorrelationID: req.CorrelationID,
		AmountTotal:   req.AmountCents,
		Currency:      req.Currency,
	}
	if g.autoPay {
		session.PaymentIntentID = "pi_mock_" + id[len("cs_mock_"):]
	}

	g.mu.Lock()
	g.sessions[id] = session
	g.mu.Unlock()

	log.Printf("[PAYMENT] Mock session %s created for %s (%d %s, paid=%v)", id, req.CorrelationID, req.AmountCents, req.Currency, g.autoPay)
	copied := *session
	return &copied, nil
}

// GetSession returns a snapshot of a stored session
func (g *MockGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Refund records a refund against a paid session
func (g *MockGateway) Refund(ctx context.Context, sessionID string, amountCents int64) (*Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.PaymentStatus != StatusPaid {
		return nil, ErrNotPaid
	}
	if amountCents <= 0 || amountCents > session.AmountTotal {
		return nil, fmt.Errorf("refund amount %d out of range", amountCents)
	}

	refund := Refund{
		ID:          "re_mock_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SessionID:   sessionID,
		AmountCents: amountCents,
		Status:      "succeeded",
	}
	g.refunds = append(g.refunds, refund)
	return &refund, nil
}

// ParseWebhook accepts unsigned payloads shaped like provider events
func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidSignature)
	}
	return &WebhookEvent{ID: raw.ID, Type: raw.Type, SessionID: raw.Data.Object.ID}, nil
}

// MarkPaid flips a session to paid, as if the user finished checkout
func (g *MockGateway) MarkPaid(sessionID string) error {
	return g.setStatus(sessionID, StatusPaid)
}

// MarkUnpaid flips a session back to unpaid
func (g *MockGateway) MarkUnpaid(sessionID string) error {
	return g.setStatus(sessionID, "unpaid")
}

// SetAmount overrides the amount the provider reports for a session
func (g *MockGateway) SetAmount(sessionID string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.AmountTotal = amountCents
	return nil
}

// Refunds returns every refund issued so far
func (g *MockGateway) Refunds() []Refund {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Refund(nil), g.refunds...)
}

func (g *MockGateway) setStatus(sessionID, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.PaymentStatus = status
	if status == StatusPaid && session.PaymentIntentID == "" {
		session.PaymentIntentID = "pi_mock_" + strings.TrimPrefix(sessionID, "cs_mock_")
	}
	return nil
}

func mockRedirect(successURL, sessionID string) string {
	target := strings.ReplaceAll(successURL, CheckoutSessionPlaceholder, sessionID)
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("mock", "true")
	u.RawQuery = q.Encode()
	return u.String()
}
