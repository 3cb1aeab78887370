package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/database"
	"askyaguy/internal/domain"
	apperrors "askyaguy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedQuestion(t *testing.T, repo *QuestionRepository, mutate func(q *domain.Question)) *domain.Question {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	q := &domain.Question{
		Email:      "asker@example.com",
		Title:      "Title",
		Details:    "Details",
		Urgency:    domain.UrgencyStandard,
		PriceCents: 4900,
		CreatedAt:  now,
		DueDate:    now.Add(24 * time.Hour),
	}
	if mutate != nil {
		mutate(q)
	}
	require.NoError(t, repo.Create(context.Background(), q))
	return q
}

func seedUser(t *testing.T, repo *UserRepository, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestCreateAndFind(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()

	q := seedQuestion(t, repo, nil)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, domain.StatusPendingPayment, q.Status)
	assert.Equal(t, domain.PaymentPending, q.PaymentStatus)

	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, got.Title)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetPaymentSession(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)

	require.NoError(t, repo.SetPaymentSession(ctx, q.ID, "cs_1", time.Now().UTC()))
	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", got.SessionID())

	other := seedQuestion(t, repo, nil)
	err = repo.SetPaymentSession(ctx, other.ID, "cs_1", time.Now().UTC())
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	assert.True(t, apperrors.IsNotFound(repo.SetPaymentSession(ctx, "missing", "cs_2", time.Now().UTC())))
}

func TestTransitionSingleWinner(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := repo.Transition(ctx, q.ID, Transition{
				Event:   domain.EventPaymentConfirmed,
				To:      domain.StatusReceived,
				Updates: map[string]any{"payment_status": string(domain.PaymentSucceeded)},
			})
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceived, got.Status)
	assert.Equal(t, domain.PaymentSucceeded, got.PaymentStatus)
}

func TestTransitionSessionGuard(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)
	require.NoError(t, repo.SetPaymentSession(ctx, q.ID, "cs_current", time.Now().UTC()))

	got, applied, err := repo.Transition(ctx, q.ID, Transition{
		Event:     domain.EventPaymentConfirmed,
		To:        domain.StatusReceived,
		SessionID: "cs_stale",
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, domain.StatusPendingPayment, got.Status)
}

func TestTransitionUnreachableTarget(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	q := seedQuestion(t, repo, nil)

	_, _, err := repo.Transition(context.Background(), q.ID, Transition{Event: domain.EventAdminSetStatus, To: domain.StatusAnswered})
	assert.True(t, apperrors.IsInvalidStatus(err))
}

func TestTransitionMissingQuestion(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))

	_, _, err := repo.Transition(context.Background(), "missing", Transition{Event: domain.EventPaymentConfirmed, To: domain.StatusReceived})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransitionWritesAdminActionAtomically(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	admin := seedUser(t, users, "admin@example.com", domain.RoleAdmin)
	user := seedUser(t, users, "user@example.com", domain.RoleUser)
	q := seedQuestion(t, repo, nil)

	action := func() *domain.AdminAction {
		return &domain.AdminAction{
			ActionType: domain.ActionStatusChange,
			Details:    datatypes.JSON(`{"from":"pending_payment","to":"cancelled"}`),
		}
	}

	_, _, err := repo.Transition(ctx, q.ID, Transition{
		Event: domain.EventAdminSetStatus, To: domain.StatusCancelled,
		ActorID: user.ID, Action: action(),
	})
	assert.True(t, apperrors.IsAccessDenied(err))

	_, _, err = repo.Transition(ctx, q.ID, Transition{
		Event: domain.EventAdminSetStatus, To: domain.StatusCancelled,
		ActorID: "ghost", Action: action(),
	})
	assert.True(t, apperrors.IsAccessDenied(err))

	actions, err := repo.ListAdminActions(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)

	got, applied, err := repo.Transition(ctx, q.ID, Transition{
		Event: domain.EventAdminSetStatus, To: domain.StatusCancelled,
		ActorID: admin.ID, Action: action(),
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, domain.StatusCancelled, got.Status)

	actions, err = repo.ListAdminActions(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, admin.ID, actions[0].AdminID)
	assert.Equal(t, domain.ActionStatusChange, actions[0].ActionType)

	// A losing admin transition leaves no audit row
	_, applied, err = repo.Transition(ctx, q.ID, Transition{
		Event: domain.EventAdminSetStatus, To: domain.StatusRefunded,
		ActorID: admin.ID, Action: action(),
	})
	require.NoError(t, err)
	assert.False(t, applied)
	actions, err = repo.ListAdminActions(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}

func TestTransitionRejectsActionWithoutActor(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)

	_, applied, err := repo.Transition(ctx, q.ID, Transition{
		Event:  domain.EventAdminSetStatus,
		To:     domain.StatusCancelled,
		Action: &domain.AdminAction{ActionType: domain.ActionStatusChange, Details: datatypes.JSON(`{}`)},
	})
	assert.True(t, apperrors.IsAccessDenied(err))
	assert.False(t, applied)

	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, got.Status)

	actions, err := repo.ListAdminActions(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestAdminActionsAreAppendOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	admin := seedUser(t, NewUserRepository(db), "admin@example.com", domain.RoleAdmin)
	q := seedQuestion(t, repo, nil)

	_, _, err := repo.Transition(context.Background(), q.ID, Transition{
		Event: domain.EventAdminSetStatus, To: domain.StatusReceived,
		ActorID: admin.ID, Action: &domain.AdminAction{ActionType: domain.ActionStatusChange},
	})
	require.NoError(t, err)

	actions, err := repo.ListAdminActions(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	err = db.Model(&actions[0]).Update("action_type", "tampered").Error
	assert.ErrorIs(t, err, domain.ErrAppendOnly)
	err = db.Delete(&actions[0]).Error
	assert.ErrorIs(t, err, domain.ErrAppendOnly)
}

func TestListForOwner(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	owner := "user-1"
	base := time.Now().UTC().Truncate(time.Second)

	first := seedQuestion(t, repo, func(q *domain.Question) { q.UserID = &owner; q.Email = "Owner@Example.com"; q.CreatedAt = base })
	second := seedQuestion(t, repo, func(q *domain.Question) { q.Email = "owner@example.com"; q.CreatedAt = base.Add(time.Minute) })
	seedQuestion(t, repo, func(q *domain.Question) { q.Email = "someone@example.com" })

	qs, err := repo.ListForOwner(ctx, owner, "OWNER@example.com")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, second.ID, qs[0].ID)
	assert.Equal(t, first.ID, qs[1].ID)

	qs, err = repo.ListForOwner(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestListFilter(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()

	seedQuestion(t, repo, nil)
	urgent := seedQuestion(t, repo, func(q *domain.Question) { q.Urgency = domain.UrgencyUrgent })
	seedQuestion(t, repo, func(q *domain.Question) { q.Status = domain.StatusReceived })

	u := domain.UrgencyUrgent
	qs, err := repo.List(ctx, ListFilter{Urgency: &u})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, urgent.ID, qs[0].ID)

	s := domain.StatusReceived
	qs, err = repo.List(ctx, ListFilter{Status: &s})
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	qs, err = repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, qs, 3)
}

func TestListDueBefore(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	now := time.Now().UTC()

	due := seedQuestion(t, repo, func(q *domain.Question) { q.Status = domain.StatusReceived; q.DueDate = now.Add(time.Hour) })
	overdue := seedQuestion(t, repo, func(q *domain.Question) { q.Status = domain.StatusInProgress; q.DueDate = now.Add(-time.Hour) })
	seedQuestion(t, repo, func(q *domain.Question) { q.Status = domain.StatusReceived; q.DueDate = now.Add(10 * time.Hour) })
	seedQuestion(t, repo, func(q *domain.Question) { q.Status = domain.StatusAnswered; q.DueDate = now.Add(-time.Hour) })
	seedQuestion(t, repo, func(q *domain.Question) { q.DueDate = now.Add(-time.Hour) })

	qs, err := repo.ListDueBefore(context.Background(), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, overdue.ID, qs[0].ID)
	assert.Equal(t, due.ID, qs[1].ID)
}

func TestStats(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	created := time.Now().UTC().Add(-10 * time.Hour).Truncate(time.Second)
	answeredAt := created.Add(4 * time.Hour)
	answer := "42"

	seedQuestion(t, repo, nil)
	seedQuestion(t, repo, func(q *domain.Question) {
		q.Status = domain.StatusAnswered
		q.PaymentStatus = domain.PaymentSucceeded
		q.PriceCents = 9900
		q.CreatedAt = created
		q.AnsweredAt = &answeredAt
		q.AnswerText = &answer
	})
	seedQuestion(t, repo, func(q *domain.Question) {
		q.Status = domain.StatusReceived
		q.PaymentStatus = domain.PaymentSucceeded
	})

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Len(t, stats.CountByStatus, len(domain.AllStatuses))
	assert.Equal(t, int64(1), stats.CountByStatus[domain.StatusPendingPayment])
	assert.Equal(t, int64(1), stats.CountByStatus[domain.StatusAnswered])
	assert.Equal(t, int64(0), stats.CountByStatus[domain.StatusRefunded])
	assert.Equal(t, int64(9900+4900), stats.TotalRevenueCents)
	assert.InDelta(t, 4.0, stats.AverageResponseHours, 0.001)
}

func TestStatsEmpty(t *testing.T) {
	stats, err := NewQuestionRepository(newTestDB(t)).Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageResponseHours)
	assert.Zero(t, stats.TotalRevenueCents)
}

func TestAttachmentsCascade(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)

	require.NoError(t, repo.AddAttachment(ctx, &domain.Attachment{QuestionID: q.ID, Filename: "a.png", FileURL: "https://files/a.png", FileSize: 10, MimeType: "image/png"}))
	as, err := repo.ListAttachments(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, as, 1)

	require.NoError(t, db.Delete(&domain.Question{}, "id = ?", q.ID).Error)
	as, err = repo.ListAttachments(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, as)
}

func TestNotificationsLog(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	q := seedQuestion(t, repo, nil)
	qid := q.ID

	require.NoError(t, repo.RecordNotification(ctx, &domain.EmailNotification{
		UserEmail: q.Email, QuestionID: &qid, NotificationType: domain.NotificationConfirmation,
		Subject: "s", Status: domain.DeliverySent,
	}))

	ns, err := repo.ListNotifications(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, domain.DeliverySent, ns[0].Status)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u := seedUser(t, repo, " Mixed@Example.COM ", "")
	assert.Equal(t, "mixed@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)

	got, err := repo.FindByEmail(ctx, "MIXED@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	err = repo.Create(ctx, &domain.User{Email: "mixed@example.com", PasswordHash: "y"})
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	require.NoError(t, repo.SetRole(ctx, u.ID, domain.RoleAdmin))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.True(t, apperrors.IsNotFound(repo.SetRole(ctx, "missing", domain.RoleAdmin)))
}
