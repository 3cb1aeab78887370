package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"askyaguy/internal/config"

	"github.com/google/uuid"
)

// SMTPSender sends multipart emails through an SMTP relay
type SMTPSender struct {
	cfg      *config.EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

// Send sends an HTML email with a plain text fallback
func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if s.cfg.SMTPHost == "" {
		return Receipt{}, fmt.Errorf("email service not properly configured")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}

	messageID := uuid.NewString()
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := s.sendMail(addr, auth, s.cfg.FromEmail, []string{msg.To}, s.build(msg, messageID)); err != nil {
		return Receipt{}, fmt.Errorf("failed to send email: %w", err)
	}

	return Receipt{Delivered: true, ID: messageID}, nil
}

func (s *SMTPSender) build(msg Message, messageID string) []byte {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	boundary := "----=_Part_" + messageID

	headers := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", msg.To) +
		fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
		fmt.Sprintf("Message-ID: <%s@%s>\r\n", messageID, s.cfg.SMTPHost) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
		"\r\n"

	// Plain text part
	body := headers +
		fmt.Sprintf("--%s\r\n", boundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		msg.Text + "\r\n"

	if msg.HTML != "" {
		body += fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			msg.HTML + "\r\n"
	}

	body += fmt.Sprintf("--%s--\r\n", boundary)
	return []byte(body)
}
