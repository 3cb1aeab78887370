package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType identifies which template a notification used
type NotificationType string

const (
	NotificationConfirmation    NotificationType = "confirmation"
	NotificationAnswerDelivered NotificationType = "answer_delivered"
	NotificationSLAReminder     NotificationType = "sla_reminder"
)

// DeliveryStatus is the outcome of one send attempt
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// EmailNotification records one attempted notification. Rows are never updated.
type EmailNotification struct {
	ID                string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserEmail         string           `gorm:"not null;index" json:"user_email"`
	QuestionID        *string          `gorm:"type:varchar(36);index" json:"question_id"`
	NotificationType  NotificationType `gorm:"type:varchar(32);not null" json:"notification_type"`
	Subject           string           `json:"subject"`
	Status            DeliveryStatus   `gorm:"type:varchar(16);not null" json:"status"`
	ProviderMessageID string           `json:"provider_message_id,omitempty"`
	Error             *string          `gorm:"type:text" json:"error,omitempty"`
	SentAt            time.Time        `json:"sent_at"`
}

// TableName specifies the table name for EmailNotification
func (EmailNotification) TableName() string {
	return "email_notifications"
}

// BeforeCreate hook
func (n *EmailNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate hook
func (n *EmailNotification) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}
