package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/database"
	"askyaguy/internal/domain"
	"askyaguy/internal/notify"
	"askyaguy/internal/payment"
	"askyaguy/internal/repository"

	"github.com/stretchr/testify/require"
)

// flakyGateway wraps the mock gateway with injectable failures
type flakyGateway struct {
	*payment.MockGateway

	mu          sync.Mutex
	createErr   error
	getErr      error
	refundErr   error
	refundCalls int
}

func (g *flakyGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.mu.Lock()
	err := g.createErr
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.MockGateway.CreateSession(ctx, req)
}

func (g *flakyGateway) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	g.mu.Lock()
	err := g.getErr
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.MockGateway.GetSession(ctx, id)
}

func (g *flakyGateway) Refund(ctx context.Context, id string, amount int64) (*payment.Refund, error) {
	g.mu.Lock()
	g.refundCalls++
	err := g.refundErr
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.MockGateway.Refund(ctx, id, amount)
}

// cancelAfterTransition cancels the request context once a transition
// commits, like a client hanging up mid-request
type cancelAfterTransition struct {
	*repository.QuestionRepository
	cancel context.CancelFunc
}

func (s *cancelAfterTransition) Transition(ctx context.Context, id string, t repository.Transition) (*domain.Question, bool, error) {
	q, applied, err := s.QuestionRepository.Transition(ctx, id, t)
	s.cancel()
	return q, applied, err
}

// recordingSender captures messages and can be told to fail. Like a network
// sender it gives up on a cancelled context.
type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []notify.Message
}

func (s *recordingSender) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return notify.Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return notify.Receipt{}, s.err
	}
	s.sent = append(s.sent, msg)
	return notify.Receipt{Delivered: true, ID: "msg"}, nil
}

func (s *recordingSender) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.sent...)
}

type harness struct {
	svc       *QuestionService
	auth      *AuthService
	questions *repository.QuestionRepository
	users     *repository.UserRepository
	gateway   *flakyGateway
	sender    *recordingSender
	admin     *domain.User
	user      *domain.User
	now       time.Time
}

var testPricing = config.PricingConfig{
	Currency: "usd",
	Standard: config.PriceTier{PriceCents: 4900, SLAHours: 24},
	Urgent:   config.PriceTier{PriceCents: 9900, SLAHours: 6},
}

func newHarness(t *testing.T, autoPay bool) *harness {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	h := &harness{
		questions: repository.NewQuestionRepository(db),
		users:     repository.NewUserRepository(db),
		gateway:   &flakyGateway{MockGateway: payment.NewMockGateway(autoPay)},
		sender:    &recordingSender{},
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	notifier := notify.NewNotifier(h.sender, h.questions, notify.NewTemplates("http://localhost:8000", "usd"), "admin@yaguy.com")
	h.svc = NewQuestionService(h.questions, h.users, h.gateway, notifier, testPricing, "http://localhost:8000/").
		WithClock(func() time.Time { return h.now })
	h.auth = NewAuthService(h.users, &config.AuthConfig{SecretKey: "test-secret-that-is-long-enough-0123456789", TokenExpiryMinutes: 60})

	h.admin = &domain.User{Email: "admin@yaguy.com", PasswordHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, h.users.Create(context.Background(), h.admin))
	h.user = &domain.User{Email: "asker@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, h.users.Create(context.Background(), h.user))

	return h
}

func (h *harness) submit(t *testing.T, urgency string) *SubmitResult {
	t.Helper()
	res, err := h.svc.Submit(context.Background(), SubmitInput{
		Email:   "asker@example.com",
		Title:   "How do I deploy?",
		Details: "Step by step please",
		Urgency: urgency,
		OwnerID: h.user.ID,
	})
	require.NoError(t, err)
	return res
}

// paidQuestion submits and confirms a question, leaving it in received
func (h *harness) paidQuestion(t *testing.T) *domain.Question {
	t.Helper()
	res := h.submit(t, "standard")
	require.NoError(t, h.gateway.MarkPaid(res.SessionID))
	q, err := h.svc.ConfirmPayment(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReceived, q.Status)
	return q
}

func (h *harness) notificationsOf(t *testing.T, questionID string) []domain.EmailNotification {
	t.Helper()
	ns, err := h.questions.ListNotifications(context.Background(), questionID)
	require.NoError(t, err)
	return ns
}
