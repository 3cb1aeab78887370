package notify

import (
	"context"
	"fmt"

	"askyaguy/internal/config"
)

// Message is one rendered email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Receipt reports what the provider did with a message
type Receipt struct {
	Delivered bool
	ID        string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// NewSender selects the sender named by EMAIL_PROVIDER
func NewSender(cfg *config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case "file":
		return NewFileSender(cfg.OutboxDir), nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "resend":
		return NewResendSender(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}
