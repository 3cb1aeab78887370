package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is a paid question and its full lifecycle state
type Question struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           *string        `gorm:"type:varchar(36);index" json:"user_id"`
	Email            string         `gorm:"not null;index" json:"email"`
	Title            string         `gorm:"not null" json:"title"`
	Details          string         `gorm:"type:text;not null" json:"details"`
	Urgency          Urgency        `gorm:"type:varchar(16);not null" json:"urgency"`
	Status           QuestionStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	PriceCents       int64          `gorm:"not null" json:"price_cents"`
	PaymentSessionID *string        `gorm:"type:varchar(255);uniqueIndex" json:"payment_session_id"`
	PaymentStatus    PaymentStatus  `gorm:"type:varchar(16);not null" json:"payment_status"`
	RefundID         *string        `gorm:"type:varchar(255)" json:"refund_id,omitempty"`
	DueDate          time.Time      `gorm:"not null;index" json:"due_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	AnsweredAt       *time.Time     `json:"answered_at"`
	AnswerText       *string        `gorm:"type:text" json:"answer_text"`
	AdminNotes       *string        `gorm:"type:text" json:"admin_notes,omitempty"`

	Attachments  []Attachment  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AdminActions []AdminAction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Question
func (Question) TableName() string {
	return "questions"
}

// BeforeCreate hook
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if q.Status == "" {
		q.Status = StatusPendingPayment
	}
	if q.PaymentStatus == "" {
		q.PaymentStatus = PaymentPending
	}
	return nil
}

// IsOwnedBy reports whether userID owns the question
func (q *Question) IsOwnedBy(userID string) bool {
	return userID != "" && q.UserID != nil && *q.UserID == userID
}

// SessionID returns the stored payment session reference or ""
func (q *Question) SessionID() string {
	if q.PaymentSessionID == nil {
		return ""
	}
	return *q.PaymentSessionID
}

// Attachment is file metadata bound to one question
type Attachment struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	QuestionID string    `gorm:"type:varchar(36);not null;index" json:"question_id"`
	Filename   string    `gorm:"not null" json:"filename"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TableName specifies the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}

// BeforeCreate hook
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now().UTC()
	}
	return nil
}
