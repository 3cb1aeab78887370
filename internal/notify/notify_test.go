package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLog struct {
	mu   sync.Mutex
	rows []domain.EmailNotification
}

func (m *memoryLog) RecordNotification(ctx context.Context, n *domain.EmailNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *n)
	return nil
}

type stubSender struct {
	receipt Receipt
	err     error
	sent    []Message
}

func (s *stubSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	s.sent = append(s.sent, msg)
	return s.receipt, s.err
}

func testQuestion() *domain.Question {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Question{
		ID:         "11111111-2222-3333-4444-555555555555",
		Email:      "asker@example.com",
		Title:      "Why <b>bold</b>?",
		Details:    "details",
		Urgency:    domain.UrgencyUrgent,
		Status:     domain.StatusReceived,
		PriceCents: 9900,
		CreatedAt:  created,
		DueDate:    created.Add(6 * time.Hour),
	}
}

func TestFileSenderWritesOutbox(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	s := NewFileSender(dir)

	receipt, err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Text: "body"})
	require.NoError(t, err)
	assert.True(t, receipt.Delivered)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), receipt.ID)
	assert.NotContains(t, entries[0].Name(), ":")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "a@example.com", stored["to"])
	assert.Equal(t, "Hi", stored["subject"])
}

func TestResendSender(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender(&config.EmailConfig{ResendAPIKey: "re_key", FromEmail: "noreply@yaguy.com", FromName: "Ask YaGuy"})
	s.endpoint = srv.URL

	receipt, err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, Receipt{Delivered: true, ID: "msg_123"}, receipt)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "Ask YaGuy <noreply@yaguy.com>", got.From)
}

func TestResendSenderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s := NewResendSender(&config.EmailConfig{ResendAPIKey: "re_key", FromEmail: "noreply@yaguy.com"})
	s.endpoint = srv.URL

	_, err := s.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorContains(t, err, "422")
}

func TestSMTPSenderBuildsMultipart(t *testing.T) {
	cfg := &config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, FromEmail: "noreply@yaguy.com", FromName: "Ask YaGuy"}
	s := NewSMTPSender(cfg)

	var captured []byte
	var addr string
	s.sendMail = func(a string, _ smtp.Auth, from string, to []string, msg []byte) error {
		addr = a
		captured = msg
		assert.Equal(t, []string{"a@example.com"}, to)
		return nil
	}

	receipt, err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>", Text: "x"})
	require.NoError(t, err)
	assert.True(t, receipt.Delivered)
	assert.Equal(t, "smtp.example.com:587", addr)

	body := string(captured)
	assert.Contains(t, body, "From: Ask YaGuy <noreply@yaguy.com>\r\n")
	assert.Contains(t, body, "Content-Type: text/plain")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(body, "--\r\n"))
}

func TestNewSenderRejectsUnknownProvider(t *testing.T) {
	_, err := NewSender(&config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestTemplatesEscapeHTML(t *testing.T) {
	tmpl := NewTemplates("http://localhost:8000/", "usd")
	msg := tmpl.Confirmation(testQuestion())

	assert.Equal(t, "asker@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Why &lt;b&gt;bold&lt;/b&gt;?")
	assert.Contains(t, msg.Text, "Why <b>bold</b>?")
	assert.Contains(t, msg.Text, "$99.00")
	assert.Contains(t, msg.Text, "Urgent (6 hours)")
	assert.Contains(t, msg.Text, "http://localhost:8000/question.html?id=11111111-2222-3333-4444-555555555555")
}

func TestNotifierRecordsSent(t *testing.T) {
	sender := &stubSender{receipt: Receipt{Delivered: true, ID: "m-1"}}
	store := &memoryLog{}
	n := NewNotifier(sender, store, NewTemplates("http://localhost:8000", "usd"), "admin@yaguy.com")

	require.NoError(t, n.SendAnswerDelivered(context.Background(), testQuestion()))

	require.Len(t, store.rows, 1)
	row := store.rows[0]
	assert.Equal(t, domain.NotificationAnswerDelivered, row.NotificationType)
	assert.Equal(t, domain.DeliverySent, row.Status)
	assert.Equal(t, "m-1", row.ProviderMessageID)
	assert.Equal(t, "asker@example.com", row.UserEmail)
	assert.Nil(t, row.Error)
}

func TestNotifierRecordsFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	store := &memoryLog{}
	n := NewNotifier(sender, store, NewTemplates("http://localhost:8000", "usd"), "admin@yaguy.com")

	err := n.SendConfirmation(context.Background(), testQuestion())
	require.Error(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, domain.DeliveryFailed, store.rows[0].Status)
	require.NotNil(t, store.rows[0].Error)
	assert.Contains(t, *store.rows[0].Error, "smtp down")
}

func TestNotifierTreatsUndeliveredAsFailure(t *testing.T) {
	sender := &stubSender{receipt: Receipt{Delivered: false}}
	store := &memoryLog{}
	n := NewNotifier(sender, store, NewTemplates("http://localhost:8000", "usd"), "admin@yaguy.com")

	assert.Error(t, n.SendConfirmation(context.Background(), testQuestion()))
	assert.Equal(t, domain.DeliveryFailed, store.rows[0].Status)
}

func TestNotifierSLAReminderGoesToAdmin(t *testing.T) {
	sender := &stubSender{receipt: Receipt{Delivered: true}}
	store := &memoryLog{}
	n := NewNotifier(sender, store, NewTemplates("http://localhost:8000", "usd"), "admin@yaguy.com")
	q := testQuestion()

	require.NoError(t, n.SendSLAReminder(context.Background(), q, q.DueDate.Add(-time.Hour)))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "admin@yaguy.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "due in 1h0m0s")
	assert.Equal(t, domain.NotificationSLAReminder, store.rows[0].NotificationType)
}
