package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"askyaguy/internal/domain"
	"askyaguy/internal/metrics"
)

// NotificationLog persists one row per notification attempt
type NotificationLog interface {
	RecordNotification(ctx context.Context, n *domain.EmailNotification) error
}

// Notifier renders, sends, and records notifications. Send failures are
// returned to the caller but never retried.
type Notifier struct {
	sender     Sender
	store      NotificationLog
	templates  *Templates
	adminEmail string
}

// NewNotifier creates a notifier
func NewNotifier(sender Sender, store NotificationLog, templates *Templates, adminEmail string) *Notifier {
	return &Notifier{
		sender:     sender,
		store:      store,
		templates:  templates,
		adminEmail: adminEmail,
	}
}

// SendConfirmation tells the asker that payment was received
func (n *Notifier) SendConfirmation(ctx context.Context, q *domain.Question) error {
	return n.deliver(ctx, domain.NotificationConfirmation, q.ID, n.templates.Confirmation(q))
}

// SendAnswerDelivered tells the asker that the answer is available
func (n *Notifier) SendAnswerDelivered(ctx context.Context, q *domain.Question) error {
	return n.deliver(ctx, domain.NotificationAnswerDelivered, q.ID, n.templates.AnswerDelivered(q))
}

// SendSLAReminder warns the admin about an open question near its due date
func (n *Notifier) SendSLAReminder(ctx context.Context, q *domain.Question, now time.Time) error {
	return n.deliver(ctx, domain.NotificationSLAReminder, q.ID, n.templates.SLAReminder(q, n.adminEmail, now))
}

func (n *Notifier) deliver(ctx context.Context, kind domain.NotificationType, questionID string, msg Message) error {
	receipt, err := n.sender.Send(ctx, msg)
	if err == nil && !receipt.Delivered {
		err = errors.New("message was not accepted by provider")
	}

	qid := questionID
	record := &domain.EmailNotification{
		UserEmail:         msg.To,
		QuestionID:        &qid,
		NotificationType:  kind,
		Subject:           msg.Subject,
		Status:            domain.DeliverySent,
		ProviderMessageID: receipt.ID,
	}
	if err != nil {
		errText := err.Error()
		record.Status = domain.DeliveryFailed
		record.Error = &errText
		log.Printf("[EMAIL] %s notification for question %s to %s failed: %v", kind, questionID, msg.To, err)
	} else {
		log.Printf("[EMAIL] %s notification for question %s sent to %s", kind, questionID, msg.To)
	}

	// The log row must survive a cancelled request
	if recErr := n.store.RecordNotification(context.WithoutCancel(ctx), record); recErr != nil {
		log.Printf("[EMAIL] Failed to record %s notification for question %s: %v", kind, questionID, recErr)
	}
	metrics.RecordNotification(string(kind), string(record.Status))

	return err
}
