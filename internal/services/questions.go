package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/domain"
	"askyaguy/internal/metrics"
	"askyaguy/internal/payment"
	"askyaguy/internal/repository"
	apperrors "askyaguy/pkg/errors"

	"gorm.io/datatypes"
)

const (
	maxTitleLength = 200
	maxEmailLength = 254
)

// QuestionStore is the persistence the lifecycle engine needs
type QuestionStore interface {
	Create(ctx context.Context, q *domain.Question) error
	SetPaymentSession(ctx context.Context, id, sessionID string, now time.Time) error
	FindByID(ctx context.Context, id string) (*domain.Question, error)
	Transition(ctx context.Context, id string, t repository.Transition) (*domain.Question, bool, error)
	ListForOwner(ctx context.Context, userID, email string) ([]domain.Question, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Question, error)
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Question, error)
	Stats(ctx context.Context) (*repository.Stats, error)
	AddAttachment(ctx context.Context, a *domain.Attachment) error
	ListAttachments(ctx context.Context, questionID string) ([]domain.Attachment, error)
	ListAdminActions(ctx context.Context, questionID string) ([]domain.AdminAction, error)
	ListNotifications(ctx context.Context, questionID string) ([]domain.EmailNotification, error)
}

// Notifications sends the lifecycle emails
type Notifications interface {
	SendConfirmation(ctx context.Context, q *domain.Question) error
	SendAnswerDelivered(ctx context.Context, q *domain.Question) error
	SendSLAReminder(ctx context.Context, q *domain.Question, now time.Time) error
}

// SubmitInput is a new question as entered by the asker
type SubmitInput struct {
	Email   string
	Title   string
	Details string
	Urgency string
	OwnerID string
}

// SubmitResult points the asker at checkout
type SubmitResult struct {
	QuestionID  string
	SessionID   string
	CheckoutURL string
	Question    *domain.Question
}

// AttachmentInput is attachment metadata; the file itself lives elsewhere
type AttachmentInput struct {
	Filename string
	FileURL  string
	FileSize int64
	MimeType string
}

// QuestionDetail is a question with everything hanging off it. The admin
// trail and notification log are only filled for admins.
type QuestionDetail struct {
	Question      *domain.Question
	Attachments   []domain.Attachment
	AdminActions  []domain.AdminAction
	Notifications []domain.EmailNotification
}

// WebhookResult reports what a provider callback did
type WebhookResult struct {
	EventType string
	Handled   bool
	Question  *domain.Question
}

// QuestionService drives the question lifecycle
type QuestionService struct {
	store       QuestionStore
	users       UserStore
	gateway     payment.Gateway
	notifier    Notifications
	pricing     config.PricingConfig
	frontendURL string
	now         func() time.Time
}

// NewQuestionService creates the lifecycle engine
func NewQuestionService(store QuestionStore, users UserStore, gateway payment.Gateway, notifier Notifications, pricing config.PricingConfig, frontendURL string) *QuestionService {
	return &QuestionService{
		store:       store,
		users:       users,
		gateway:     gateway,
		notifier:    notifier,
		pricing:     pricing,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// WithClock replaces the time source
func (s *QuestionService) WithClock(now func() time.Time) *QuestionService {
	s.now = now
	return s
}

// Submit stores a new question and opens a checkout session for it. If the
// gateway fails the question stays in pending_payment without a session.
func (s *QuestionService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	email := strings.TrimSpace(in.Email)
	title := strings.TrimSpace(in.Title)
	details := strings.TrimSpace(in.Details)

	if email == "" || title == "" || details == "" || strings.TrimSpace(in.Urgency) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "email, title, details and urgency are required")
	}
	if !validEmail(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "email is not a valid address")
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidInput, "title must be at most %d characters", maxTitleLength)
	}
	urgency, err := domain.ParseUrgency(in.Urgency)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err.Error(), err)
	}
	tier, ok := s.pricing.Tier(string(urgency))
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidInput, "no price configured for %s", urgency)
	}

	now := s.now()
	q := &domain.Question{
		Email:         email,
		Title:         title,
		Details:       details,
		Urgency:       urgency,
		Status:        domain.StatusPendingPayment,
		PaymentStatus: domain.PaymentPending,
		PriceCents:    tier.PriceCents,
		DueDate:       now.Add(tier.SLA()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.OwnerID != "" {
		owner := in.OwnerID
		q.UserID = &owner
	}

	if err := s.store.Create(ctx, q); err != nil {
		log.Printf("[QUESTIONS] Submit failed: %v", err)
		return nil, err
	}
	metrics.RecordQuestionSubmitted(string(urgency))
	log.Printf("[QUESTIONS] Question %s created (urgency=%s, price=%d)", q.ID, urgency, q.PriceCents)

	return s.attachSession(ctx, q)
}

// RenewPaymentSession opens a fresh checkout for a question still awaiting payment
func (s *QuestionService) RenewPaymentSession(ctx context.Context, id string) (*SubmitResult, error) {
	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != domain.StatusPendingPayment {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "question is %s, not awaiting payment", q.Status)
	}
	return s.attachSession(ctx, q)
}

func (s *QuestionService) attachSession(ctx context.Context, q *domain.Question) (*SubmitResult, error) {
	label := "Standard"
	if q.Urgency == domain.UrgencyUrgent {
		label = "Urgent"
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		CorrelationID: q.ID,
		ProductName:   fmt.Sprintf("Ask YaGuy - %s Answer", label),
		Description:   q.Title,
		AmountCents:   q.PriceCents,
		Currency:      s.pricing.Currency,
		SuccessURL:    fmt.Sprintf("%s/thanks.html?session_id=%s&question_id=%s", s.frontendURL, payment.CheckoutSessionPlaceholder, q.ID),
		CancelURL:     s.frontendURL + "/ask.html",
	})
	if err != nil {
		log.Printf("[QUESTIONS] Payment session for question %s failed: %v", q.ID, err)
		return nil, apperrors.Wrap(apperrors.ErrCodePaymentSession, "failed to create payment session", err)
	}

	if err := s.store.SetPaymentSession(ctx, q.ID, session.ID, s.now()); err != nil {
		return nil, err
	}
	q.PaymentSessionID = &session.ID

	return &SubmitResult{
		QuestionID:  q.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		Question:    q,
	}, nil
}

// ConfirmPayment verifies a session with the provider and moves its question
// to received. Repeated or concurrent calls for the same session return the
// current question without side effects; only the winning call sends the
// confirmation email.
func (s *QuestionService) ConfirmPayment(ctx context.Context, sessionID string) (*domain.Question, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "session id is required")
	}

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		metrics.RecordPaymentConfirmation("rejected")
		log.Printf("[QUESTIONS] Session %s verification failed: %v", sessionID, err)
		return nil, apperrors.Wrap(apperrors.ErrCodeSessionVerification, "failed to verify payment session", err)
	}
	if !session.IsPaid() {
		metrics.RecordPaymentConfirmation("not_paid")
		return nil, apperrors.New(apperrors.ErrCodePaymentNotCompleted, "payment not completed")
	}
	if session.CorrelationID == "" {
		metrics.RecordPaymentConfirmation("rejected")
		return nil, apperrors.New(apperrors.ErrCodeSessionVerification, "payment session is not linked to a question")
	}

	q, err := s.store.FindByID(ctx, session.CorrelationID)
	if err != nil {
		return nil, err
	}
	if q.SessionID() != session.ID {
		metrics.RecordPaymentConfirmation("rejected")
		log.Printf("[QUESTIONS] Session %s does not match question %s", session.ID, q.ID)
		return nil, apperrors.New(apperrors.ErrCodeSessionVerification, "payment session does not belong to this question")
	}
	if session.AmountTotal < q.PriceCents {
		metrics.RecordPaymentConfirmation("rejected")
		log.Printf("[QUESTIONS] Session %s paid %d, question %s costs %d", session.ID, session.AmountTotal, q.ID, q.PriceCents)
		return nil, apperrors.New(apperrors.ErrCodeSessionVerification, "paid amount is lower than the question price")
	}
	if q.Status != domain.StatusPendingPayment {
		metrics.RecordPaymentConfirmation("duplicate")
		return q, nil
	}

	updated, applied, err := s.store.Transition(ctx, q.ID, repository.Transition{
		Event:     domain.EventPaymentConfirmed,
		To:        domain.StatusReceived,
		Updates:   map[string]any{"payment_status": string(domain.PaymentSucceeded)},
		SessionID: session.ID,
		Now:       s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		metrics.RecordPaymentConfirmation("duplicate")
		return updated, nil
	}

	metrics.RecordPaymentConfirmation("confirmed")
	metrics.RecordStatusTransition(string(domain.EventPaymentConfirmed), string(domain.StatusPendingPayment), string(domain.StatusReceived))
	log.Printf("[QUESTIONS] Payment confirmed for question %s", updated.ID)

	// The payment is committed; a client hanging up must not cancel the email
	if err := s.notifier.SendConfirmation(context.WithoutCancel(ctx), updated); err != nil {
		log.Printf("[QUESTIONS] Confirmation email for question %s not delivered: %v", updated.ID, err)
	}
	return updated, nil
}

// AdminSetStatus moves a question along the admin edges of the lifecycle.
// A paid question moved to refunded is refunded with the provider first;
// if that fails nothing changes.
func (s *QuestionService) AdminSetStatus(ctx context.Context, id, rawStatus, actorID, note string) (*domain.Question, error) {
	to, err := domain.ParseQuestionStatus(rawStatus)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidStatus, err.Error(), err)
	}
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, q) {
		return nil, apperrors.New(apperrors.ErrCodeAccessDenied, "admin access required")
	}
	from := q.Status
	if !domain.CanTransition(domain.EventAdminSetStatus, from, to) {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "cannot change status from %s to %s", from, to)
	}

	note = strings.TrimSpace(note)
	updates := map[string]any{}
	details := map[string]any{"from": from, "to": to}
	if note != "" {
		updates["admin_notes"] = note
		details["note"] = note
	}

	if to == domain.StatusRefunded && q.PaymentStatus == domain.PaymentSucceeded {
		refund, err := s.gateway.Refund(ctx, q.SessionID(), q.PriceCents)
		if err != nil {
			log.Printf("[QUESTIONS] Refund for question %s failed: %v", q.ID, err)
			return nil, apperrors.Wrap(apperrors.ErrCodePaymentSession, "refund failed", err)
		}
		updates["refund_id"] = refund.ID
		details["refund_id"] = refund.ID
		details["refund_amount_cents"] = refund.AmountCents
		log.Printf("[QUESTIONS] Refund %s issued for question %s", refund.ID, q.ID)
	}

	updated, applied, err := s.store.Transition(ctx, q.ID, repository.Transition{
		Event:   domain.EventAdminSetStatus,
		To:      to,
		Updates: updates,
		ActorID: actorID,
		Action: &domain.AdminAction{
			ActionType: domain.ActionStatusChange,
			Details:    mustJSON(details),
		},
		Now: s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		if _, refunded := updates["refund_id"]; refunded {
			log.Printf("[QUESTIONS] Question %s changed to %s while refund %v was issued; status not updated", q.ID, updated.Status, updates["refund_id"])
		}
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "cannot change status from %s to %s", updated.Status, to)
	}

	metrics.RecordStatusTransition(string(domain.EventAdminSetStatus), string(from), string(to))
	log.Printf("[QUESTIONS] Admin %s moved question %s from %s to %s", actorID, q.ID, from, to)
	return updated, nil
}

// AdminPublishAnswer stores the answer, closes the question, and notifies the asker.
// An answer is written once; publishing on an answered question fails.
func (s *QuestionService) AdminPublishAnswer(ctx context.Context, id, text, actorID string) (*domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "answer text is required")
	}
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, q) {
		return nil, apperrors.New(apperrors.ErrCodeAccessDenied, "admin access required")
	}
	from := q.Status
	if !domain.CanTransition(domain.EventAnswerPublished, from, domain.StatusAnswered) {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "cannot publish an answer while question is %s", from)
	}

	now := s.now()
	updated, applied, err := s.store.Transition(ctx, q.ID, repository.Transition{
		Event: domain.EventAnswerPublished,
		To:    domain.StatusAnswered,
		Updates: map[string]any{
			"answer_text": text,
			"answered_at": now,
		},
		ActorID: actorID,
		Action: &domain.AdminAction{
			ActionType: domain.ActionAnswerPublished,
			Details:    mustJSON(map[string]any{"from": from, "answer_length": len(text)}),
		},
		Now: now,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidStatus, "cannot publish an answer while question is %s", updated.Status)
	}

	metrics.RecordStatusTransition(string(domain.EventAnswerPublished), string(from), string(domain.StatusAnswered))
	metrics.RecordAnswerPublished()
	log.Printf("[QUESTIONS] Admin %s published answer for question %s", actorID, q.ID)

	if err := s.notifier.SendAnswerDelivered(context.WithoutCancel(ctx), updated); err != nil {
		log.Printf("[QUESTIONS] Answer email for question %s not delivered: %v", updated.ID, err)
	}
	return updated, nil
}

// ListMine returns the caller's questions, newest first
func (s *QuestionService) ListMine(ctx context.Context, caller *Caller) ([]domain.Question, error) {
	if caller == nil {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication required")
	}
	return s.store.ListForOwner(ctx, caller.UserID, caller.Email)
}

// Get returns a question the caller is allowed to see
func (s *QuestionService) Get(ctx context.Context, id string, caller *Caller) (*QuestionDetail, error) {
	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(caller, q) {
		return nil, apperrors.New(apperrors.ErrCodeAccessDenied, "access denied")
	}

	detail := &QuestionDetail{Question: q}
	if detail.Attachments, err = s.store.ListAttachments(ctx, q.ID); err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		if detail.AdminActions, err = s.store.ListAdminActions(ctx, q.ID); err != nil {
			return nil, err
		}
		if detail.Notifications, err = s.store.ListNotifications(ctx, q.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// AdminListAll lists every question, optionally filtered by status and urgency
func (s *QuestionService) AdminListAll(ctx context.Context, status, urgency string) ([]domain.Question, error) {
	var filter repository.ListFilter
	if strings.TrimSpace(status) != "" {
		st, err := domain.ParseQuestionStatus(status)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err.Error(), err)
		}
		filter.Status = &st
	}
	if strings.TrimSpace(urgency) != "" {
		u, err := domain.ParseUrgency(urgency)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err.Error(), err)
		}
		filter.Urgency = &u
	}
	return s.store.List(ctx, filter)
}

// AdminStats returns dashboard aggregates
func (s *QuestionService) AdminStats(ctx context.Context) (*repository.Stats, error) {
	return s.store.Stats(ctx)
}

// AddAttachment records attachment metadata on a question the caller can see
func (s *QuestionService) AddAttachment(ctx context.Context, id string, caller *Caller, in AttachmentInput) (*domain.Attachment, error) {
	if caller == nil {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication required")
	}
	filename := strings.TrimSpace(in.Filename)
	fileURL := strings.TrimSpace(in.FileURL)
	if filename == "" || fileURL == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "filename and file_url are required")
	}
	if in.FileSize < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "file_size cannot be negative")
	}

	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(caller, q) {
		return nil, apperrors.New(apperrors.ErrCodeAccessDenied, "access denied")
	}

	a := &domain.Attachment{
		QuestionID: q.ID,
		Filename:   filename,
		FileURL:    fileURL,
		FileSize:   in.FileSize,
		MimeType:   strings.TrimSpace(in.MimeType),
		UploadedAt: s.now(),
	}
	if err := s.store.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// HandleWebhook verifies a provider callback and confirms payment on
// checkout.session.completed. Other events are acknowledged and ignored.
func (s *QuestionService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Printf("[QUESTIONS] Webhook rejected: %v", err)
		return nil, apperrors.Wrap(apperrors.ErrCodeSessionVerification, "webhook verification failed", err)
	}

	result := &WebhookResult{EventType: event.Type}
	if event.Type != payment.EventCheckoutCompleted {
		return result, nil
	}

	q, err := s.ConfirmPayment(ctx, event.SessionID)
	if err != nil {
		// Delayed payment methods complete checkout before funds arrive
		if apperrors.Is(err, apperrors.ErrCodePaymentNotCompleted) {
			return result, nil
		}
		return nil, err
	}
	result.Handled = true
	result.Question = q
	return result, nil
}

// SendSLAReminders emails the admin about every open question due within the
// window. It returns how many reminders were delivered.
func (s *QuestionService) SendSLAReminders(ctx context.Context, within time.Duration) (int, error) {
	now := s.now()
	due, err := s.store.ListDueBefore(ctx, now.Add(within))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.notifier.SendSLAReminder(ctx, &due[i], now); err != nil {
			log.Printf("[QUESTIONS] SLA reminder for question %s not delivered: %v", due[i].ID, err)
			continue
		}
		sent++
	}
	log.Printf("[QUESTIONS] SLA reminders: %d due, %d sent", len(due), sent)
	return sent, nil
}

// resolveActor loads the acting user as a Caller. An empty or unknown id
// resolves to the anonymous caller.
func (s *QuestionService) resolveActor(ctx context.Context, actorID string) (*Caller, error) {
	if actorID == "" {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &Caller{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func validEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

func mustJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
