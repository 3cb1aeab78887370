package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAppendOnly is returned by hooks on log rows that must never change
var ErrAppendOnly = errors.New("append-only record cannot be modified")

// AdminActionType names a privileged transition recorded in the audit log
type AdminActionType string

const (
	ActionStatusChange    AdminActionType = "status_change"
	ActionAnswerPublished AdminActionType = "answer_published"
)

// AdminAction is an immutable audit record of a privileged transition
type AdminAction struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AdminID    string          `gorm:"type:varchar(36);not null;index" json:"admin_id"`
	ActionType AdminActionType `gorm:"type:varchar(32);not null" json:"action_type"`
	QuestionID string          `gorm:"type:varchar(36);not null;index" json:"question_id"`
	Details    datatypes.JSON  `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for AdminAction
func (AdminAction) TableName() string {
	return "admin_actions"
}

// BeforeCreate hook
func (a *AdminAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate hook
func (a *AdminAction) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

// BeforeDelete hook
func (a *AdminAction) BeforeDelete(tx *gorm.DB) error {
	return ErrAppendOnly
}
