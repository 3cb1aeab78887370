package notify

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"askyaguy/internal/domain"
)

// Templates renders the three notification emails
type Templates struct {
	frontendURL string
	currency    string
}

// NewTemplates creates templates that link back to frontendURL
func NewTemplates(frontendURL, currency string) *Templates {
	return &Templates{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		currency:    strings.ToLower(currency),
	}
}

// QuestionLink returns the page where the asker reads a question
func (t *Templates) QuestionLink(questionID string) string {
	return fmt.Sprintf("%s/question.html?id=%s", t.frontendURL, questionID)
}

// Confirmation is sent to the asker once payment is confirmed
func (t *Templates) Confirmation(q *domain.Question) Message {
	link := t.QuestionLink(q.ID)
	due := q.DueDate.UTC().Format("Jan 2, 2006 15:04 MST")
	price := t.formatPrice(q.PriceCents)
	urgency := urgencyLabel(q)

	htmlBody := fmt.Sprintf(`<h1>Question Received!</h1>
<p>Thank you for submitting your question to Ask YaGuy.</p>
<h2>Question Details:</h2>
<p><strong>Title:</strong> %s</p>
<p><strong>Urgency:</strong> %s</p>
<p><strong>Due Date:</strong> %s</p>
<p><strong>Price:</strong> %s</p>
<p>You will receive an email when your answer is ready.</p>
<p><a href="%s">View Question</a></p>`,
		html.EscapeString(q.Title), urgency, due, price, html.EscapeString(link))

	text := fmt.Sprintf(`Question Received!

Thank you for submitting your question to Ask YaGuy.

Question Details:
Title: %s
Urgency: %s
Due Date: %s
Price: %s

You will receive an email when your answer is ready.

View Question: %s
`, q.Title, urgency, due, price, link)

	return Message{
		To:      q.Email,
		Subject: "Question Received - " + q.Title,
		HTML:    htmlBody,
		Text:    text,
	}
}

// AnswerDelivered is sent to the asker when the answer is published
func (t *Templates) AnswerDelivered(q *domain.Question) Message {
	link := t.QuestionLink(q.ID)

	htmlBody := fmt.Sprintf(`<h1>Your Answer is Ready!</h1>
<p>Great news! Your question has been answered.</p>
<h2>Question:</h2>
<p><strong>%s</strong></p>
<p><a href="%s">View Full Answer</a></p>`,
		html.EscapeString(q.Title), html.EscapeString(link))

	text := fmt.Sprintf(`Your Answer is Ready!

Great news! Your question has been answered.

Question: %s

View Full Answer: %s
`, q.Title, link)

	return Message{
		To:      q.Email,
		Subject: "Answer Ready - " + q.Title,
		HTML:    htmlBody,
		Text:    text,
	}
}

// SLAReminder is sent to the admin for an open question close to its due date
func (t *Templates) SLAReminder(q *domain.Question, adminEmail string, now time.Time) Message {
	remaining := q.DueDate.Sub(now)
	var when string
	if remaining <= 0 {
		when = fmt.Sprintf("overdue by %s", (-remaining).Round(time.Minute))
	} else {
		when = fmt.Sprintf("due in %s", remaining.Round(time.Minute))
	}

	htmlBody := fmt.Sprintf(`<h1>SLA Reminder</h1>
<p>The following question is %s.</p>
<p><strong>Title:</strong> %s</p>
<p><strong>Status:</strong> %s</p>
<p><strong>Urgency:</strong> %s</p>
<p><strong>Asked by:</strong> %s</p>`,
		when, html.EscapeString(q.Title), q.Status, urgencyLabel(q), html.EscapeString(q.Email))

	text := fmt.Sprintf(`SLA Reminder

The following question is %s.

Title: %s
Status: %s
Urgency: %s
Asked by: %s
Question ID: %s
`, when, q.Title, q.Status, urgencyLabel(q), q.Email, q.ID)

	return Message{
		To:      adminEmail,
		Subject: fmt.Sprintf("SLA Reminder - %s (%s)", q.Title, when),
		HTML:    htmlBody,
		Text:    text,
	}
}

func urgencyLabel(q *domain.Question) string {
	hours := int(math.Round(q.DueDate.Sub(q.CreatedAt).Hours()))
	name := "Standard"
	if q.Urgency == domain.UrgencyUrgent {
		name = "Urgent"
	}
	return fmt.Sprintf("%s (%d hours)", name, hours)
}

func (t *Templates) formatPrice(cents int64) string {
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if t.currency == "usd" {
		return "$" + amount
	}
	return amount + " " + strings.ToUpper(t.currency)
}
