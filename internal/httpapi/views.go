package httpapi

import (
	"time"

	"askyaguy/internal/domain"
	"askyaguy/internal/repository"
	"askyaguy/internal/services"

	"gorm.io/datatypes"
)

type questionView struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Title         string     `json:"title"`
	Details       string     `json:"details"`
	Urgency       string     `json:"urgency"`
	Status        string     `json:"status"`
	PriceCents    int64      `json:"price_cents"`
	PaymentStatus string     `json:"payment_status"`
	DueDate       time.Time  `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AnsweredAt    *time.Time `json:"answered_at"`
	AnswerText    *string    `json:"answer_text"`

	// Admin only
	UserID           *string `json:"user_id,omitempty"`
	PaymentSessionID *string `json:"payment_session_id,omitempty"`
	RefundID         *string `json:"refund_id,omitempty"`
	AdminNotes       *string `json:"admin_notes,omitempty"`
}

func newQuestionView(q *domain.Question, asAdmin bool) questionView {
	v := questionView{
		ID:            q.ID,
		Email:         q.Email,
		Title:         q.Title,
		Details:       q.Details,
		Urgency:       string(q.Urgency),
		Status:        string(q.Status),
		PriceCents:    q.PriceCents,
		PaymentStatus: string(q.PaymentStatus),
		DueDate:       q.DueDate,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		AnsweredAt:    q.AnsweredAt,
		AnswerText:    q.AnswerText,
	}
	if asAdmin {
		v.UserID = q.UserID
		v.PaymentSessionID = q.PaymentSessionID
		v.RefundID = q.RefundID
		v.AdminNotes = q.AdminNotes
	}
	return v
}

func newQuestionViews(qs []domain.Question, asAdmin bool) []questionView {
	views := make([]questionView, len(qs))
	for i := range qs {
		views[i] = newQuestionView(&qs[i], asAdmin)
	}
	return views
}

type attachmentView struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func newAttachmentView(a *domain.Attachment) attachmentView {
	return attachmentView{
		ID:         a.ID,
		Filename:   a.Filename,
		FileURL:    a.FileURL,
		FileSize:   a.FileSize,
		MimeType:   a.MimeType,
		UploadedAt: a.UploadedAt,
	}
}

type adminActionView struct {
	ID         string         `json:"id"`
	AdminID    string         `json:"admin_id"`
	ActionType string         `json:"action_type"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

type notificationView struct {
	ID                string    `json:"id"`
	UserEmail         string    `json:"user_email"`
	NotificationType  string    `json:"notification_type"`
	Subject           string    `json:"subject"`
	Status            string    `json:"status"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Error             *string   `json:"error,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}

type questionDetailView struct {
	questionView
	Attachments   []attachmentView   `json:"attachments"`
	AdminActions  []adminActionView  `json:"admin_actions,omitempty"`
	Notifications []notificationView `json:"notifications,omitempty"`
}

func newQuestionDetailView(d *services.QuestionDetail, asAdmin bool) questionDetailView {
	v := questionDetailView{
		questionView: newQuestionView(d.Question, asAdmin),
		Attachments:  make([]attachmentView, len(d.Attachments)),
	}
	for i := range d.Attachments {
		v.Attachments[i] = newAttachmentView(&d.Attachments[i])
	}
	for _, a := range d.AdminActions {
		v.AdminActions = append(v.AdminActions, adminActionView{
			ID:         a.ID,
			AdminID:    a.AdminID,
			ActionType: string(a.ActionType),
			Details:    a.Details,
			CreatedAt:  a.CreatedAt,
		})
	}
	for _, n := range d.Notifications {
		v.Notifications = append(v.Notifications, notificationView{
			ID:                n.ID,
			UserEmail:         n.UserEmail,
			NotificationType:  string(n.NotificationType),
			Subject:           n.Subject,
			Status:            string(n.Status),
			ProviderMessageID: n.ProviderMessageID,
			Error:             n.Error,
			SentAt:            n.SentAt,
		})
	}
	return v
}

// checkoutView is returned when a payment session is opened
type checkoutView struct {
	QuestionID  string    `json:"question_id"`
	SessionID   string    `json:"session_id"`
	CheckoutURL string    `json:"checkout_url"`
	Status      string    `json:"status"`
	PriceCents  int64     `json:"price_cents"`
	DueDate     time.Time `json:"due_date"`
}

func newCheckoutView(res *services.SubmitResult) checkoutView {
	return checkoutView{
		QuestionID:  res.QuestionID,
		SessionID:   res.SessionID,
		CheckoutURL: res.CheckoutURL,
		Status:      string(res.Question.Status),
		PriceCents:  res.Question.PriceCents,
		DueDate:     res.Question.DueDate,
	}
}

// paymentView is what an unauthenticated payment confirmation may reveal
type paymentView struct {
	QuestionID    string `json:"question_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type statsView struct {
	Total                int64            `json:"total"`
	CountByStatus        map[string]int64 `json:"count_by_status"`
	TotalRevenueCents    int64            `json:"total_revenue_cents"`
	AverageResponseHours float64          `json:"average_response_hours"`
}

func newStatsView(st *repository.Stats) statsView {
	v := statsView{
		Total:                st.Total,
		CountByStatus:        make(map[string]int64, len(st.CountByStatus)),
		TotalRevenueCents:    st.TotalRevenueCents,
		AverageResponseHours: st.AverageResponseHours,
	}
	for status, n := range st.CountByStatus {
		v.CountByStatus[string(status)] = n
	}
	return v
}

type userView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

type tokenView struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userView `json:"user"`
}
