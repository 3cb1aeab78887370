package repository

import (
	"context"
	"errors"
	"time"

	"askyaguy/internal/domain"
	apperrors "askyaguy/pkg/errors"

	"gorm.io/gorm"
)

const questionNotFound = "question not found"

// QuestionRepository stores questions, attachments, admin actions, and notifications
type QuestionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository creates a question repository
func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Transition describes a guarded status change
type Transition struct {
	Event domain.TransitionEvent
	To    domain.QuestionStatus
	// Extra columns written together with the status
	Updates map[string]any
	// When set, the update only applies while the stored session matches
	SessionID string
	// When set, the actor must be an existing admin and the action is
	// inserted in the same transaction as the update
	ActorID string
	Action  *domain.AdminAction
	Now     time.Time
}

// ListFilter narrows AdminListAll
type ListFilter struct {
	Status  *domain.QuestionStatus
	Urgency *domain.Urgency
}

// Stats aggregates the whole question table
type Stats struct {
	Total                int64
	CountByStatus        map[domain.QuestionStatus]int64
	TotalRevenueCents    int64
	AverageResponseHours float64
}

// Create inserts a new question
func (r *QuestionRepository) Create(ctx context.Context, q *domain.Question) (err error) {
	defer observe("questions.create", time.Now(), &err)
	return translate(r.db.WithContext(ctx).Create(q).Error, questionNotFound)
}

// SetPaymentSession stores a session reference while the question awaits payment
func (r *QuestionRepository) SetPaymentSession(ctx context.Context, id, sessionID string, now time.Time) (err error) {
	defer observe("questions.set_session", time.Now(), &err)

	res := r.db.WithContext(ctx).Model(&domain.Question{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPendingPayment)).
		Updates(map[string]any{
			"payment_session_id": sessionID,
			"updated_at":         now,
		})
	if res.Error != nil {
		return translate(res.Error, questionNotFound)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return apperrors.New(apperrors.ErrCodeInvalidStatus, "question is no longer awaiting payment")
	}
	return nil
}

// FindByID loads one question
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (q *domain.Question, err error) {
	defer observe("questions.find", time.Now(), &err)

	var question domain.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return &question, nil
}

// Transition applies a status change with a conditional update. The WHERE
// clause only matches rows in a status the table allows for the event, so
// concurrent callers race on the row and exactly one wins. applied is false
// when the row existed but was no longer eligible; q is then the current state.
func (r *QuestionRepository) Transition(ctx context.Context, id string, t Transition) (q *domain.Question, applied bool, err error) {
	defer observe("questions.transition", time.Now(), &err)

	sources := domain.SourcesFor(t.Event, t.To)
	if len(sources) == 0 {
		return nil, false, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "%s cannot move a question to %s", t.Event, t.To)
	}
	allowed := make([]string, len(sources))
	for i, s := range sources {
		allowed[i] = string(s)
	}

	if t.Action != nil && t.ActorID == "" {
		return nil, false, apperrors.New(apperrors.ErrCodeAccessDenied, "admin action requires an actor")
	}

	now := t.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.ActorID != "" {
			if err := requireAdmin(tx, t.ActorID); err != nil {
				return err
			}
		}

		updates := map[string]any{}
		for k, v := range t.Updates {
			updates[k] = v
		}
		updates["status"] = string(t.To)
		updates["updated_at"] = now

		query := tx.Model(&domain.Question{}).Where("id = ? AND status IN ?", id, allowed)
		if t.SessionID != "" {
			query = query.Where("payment_session_id = ?", t.SessionID)
		}
		res := query.Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			applied = true
			if t.Action != nil {
				t.Action.QuestionID = id
				t.Action.AdminID = t.ActorID
				if t.Action.CreatedAt.IsZero() {
					t.Action.CreatedAt = now
				}
				if err := tx.Create(t.Action).Error; err != nil {
					return err
				}
			}
		}

		var current domain.Question
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		q = &current
		return nil
	})
	if err != nil {
		return nil, false, translate(err, questionNotFound)
	}
	return q, applied, nil
}

func requireAdmin(tx *gorm.DB, actorID string) error {
	var actor domain.User
	if err := tx.Where("id = ?", actorID).First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.ErrCodeAccessDenied, "actor is not an admin")
		}
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.New(apperrors.ErrCodeAccessDenied, "actor is not an admin")
	}
	return nil
}

// ListForOwner returns questions owned by userID or submitted with email, newest first
func (r *QuestionRepository) ListForOwner(ctx context.Context, userID, email string) (qs []domain.Question, err error) {
	defer observe("questions.list_owner", time.Now(), &err)

	query := r.db.WithContext(ctx).Model(&domain.Question{})
	email = domain.NormalizeEmail(email)
	switch {
	case userID != "" && email != "":
		query = query.Where("user_id = ? OR LOWER(email) = ?", userID, email)
	case userID != "":
		query = query.Where("user_id = ?", userID)
	case email != "":
		query = query.Where("LOWER(email) = ?", email)
	default:
		return []domain.Question{}, nil
	}

	qs = []domain.Question{}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&qs).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return qs, nil
}

// List returns every question matching the filter, newest first
func (r *QuestionRepository) List(ctx context.Context, filter ListFilter) (qs []domain.Question, err error) {
	defer observe("questions.list", time.Now(), &err)

	query := r.db.WithContext(ctx).Model(&domain.Question{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Urgency != nil {
		query = query.Where("urgency = ?", string(*filter.Urgency))
	}

	qs = []domain.Question{}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&qs).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return qs, nil
}

// ListDueBefore returns open questions whose due date is before cutoff, soonest first
func (r *QuestionRepository) ListDueBefore(ctx context.Context, cutoff time.Time) (qs []domain.Question, err error) {
	defer observe("questions.list_due", time.Now(), &err)

	open := []string{string(domain.StatusReceived), string(domain.StatusInProgress)}
	qs = []domain.Question{}
	err = r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?", open, cutoff).
		Order("due_date ASC").
		Find(&qs).Error
	if err != nil {
		return nil, translate(err, questionNotFound)
	}
	return qs, nil
}

// Stats computes dashboard aggregates
func (r *QuestionRepository) Stats(ctx context.Context) (stats *Stats, err error) {
	defer observe("questions.stats", time.Now(), &err)

	db := r.db.WithContext(ctx)
	stats = &Stats{CountByStatus: make(map[domain.QuestionStatus]int64, len(domain.AllStatuses))}
	for _, s := range domain.AllStatuses {
		stats.CountByStatus[s] = 0
	}

	var rows []struct {
		Status domain.QuestionStatus
		Count  int64
	}
	if err := db.Model(&domain.Question{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	for _, row := range rows {
		stats.CountByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	if err := db.Model(&domain.Question{}).
		Select("COALESCE(SUM(price_cents), 0)").
		Where("payment_status = ?", string(domain.PaymentSucceeded)).
		Scan(&stats.TotalRevenueCents).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}

	// Averaged in Go so the query stays portable between SQLite and Postgres
	var answered []domain.Question
	if err := db.Select("created_at", "answered_at").
		Where("status = ? AND answered_at IS NOT NULL", string(domain.StatusAnswered)).
		Find(&answered).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	if len(answered) > 0 {
		var total float64
		for _, q := range answered {
			total += q.AnsweredAt.Sub(q.CreatedAt).Hours()
		}
		stats.AverageResponseHours = total / float64(len(answered))
	}

	return stats, nil
}

// AddAttachment stores attachment metadata
func (r *QuestionRepository) AddAttachment(ctx context.Context, a *domain.Attachment) (err error) {
	defer observe("attachments.create", time.Now(), &err)
	return translate(r.db.WithContext(ctx).Create(a).Error, questionNotFound)
}

// ListAttachments returns a question's attachments in upload order
func (r *QuestionRepository) ListAttachments(ctx context.Context, questionID string) (as []domain.Attachment, err error) {
	defer observe("attachments.list", time.Now(), &err)

	as = []domain.Attachment{}
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("uploaded_at ASC").Find(&as).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return as, nil
}

// ListAdminActions returns the audit trail of a question, oldest first
func (r *QuestionRepository) ListAdminActions(ctx context.Context, questionID string) (actions []domain.AdminAction, err error) {
	defer observe("admin_actions.list", time.Now(), &err)

	actions = []domain.AdminAction{}
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("created_at ASC").Find(&actions).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return actions, nil
}

// RecordNotification appends a notification attempt
func (r *QuestionRepository) RecordNotification(ctx context.Context, n *domain.EmailNotification) (err error) {
	defer observe("notifications.create", time.Now(), &err)
	return translate(r.db.WithContext(ctx).Create(n).Error, questionNotFound)
}

// ListNotifications returns notifications sent about a question, oldest first
func (r *QuestionRepository) ListNotifications(ctx context.Context, questionID string) (ns []domain.EmailNotification, err error) {
	defer observe("notifications.list", time.Now(), &err)

	ns = []domain.EmailNotification{}
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("sent_at ASC").Find(&ns).Error; err != nil {
		return nil, translate(err, questionNotFound)
	}
	return ns, nil
}
