package httpapi

import (
	"context"
	stderrors "errors"
	"io"
	"log"
	"net/http"

	"askyaguy/internal/services"
	apperrors "askyaguy/pkg/errors"
)

const maxWebhookBytes = 1 << 16

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createQuestionRequest struct {
	Email   string `json:"email"`
	Title   string `json:"title"`
	Details string `json:"details"`
	Urgency string `json:"urgency"`
}

type confirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

type attachmentRequest struct {
	Filename string `json:"filename"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

type setStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type publishAnswerRequest struct {
	AnswerText string `json:"answer_text"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := s.decoder(r).Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "request body is required")
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, "request body is not valid JSON", err)
	}
	return nil
}

func (s *Server) healthCheck(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	result, healthy := s.health.Check(ctx)
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	s.respond(ctx, w, status, result)
	return nil
}

func (s *Server) register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body registerRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	res, err := s.auth.Register(ctx, services.RegisterInput{Email: body.Email, Password: body.Password, Name: body.Name})
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusCreated, tokenView{AccessToken: res.Token, TokenType: res.TokenType, User: newUserView(res.User)})
	return nil
}

func (s *Server) login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body loginRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	res, err := s.auth.Login(ctx, body.Email, body.Password)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, tokenView{AccessToken: res.Token, TokenType: res.TokenType, User: newUserView(res.User)})
	return nil
}

func (s *Server) me(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user, err := s.auth.Me(ctx, services.CallerFrom(ctx))
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newUserView(user))
	return nil
}

func (s *Server) createQuestion(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body createQuestionRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}

	in := services.SubmitInput{Email: body.Email, Title: body.Title, Details: body.Details, Urgency: body.Urgency}
	if caller := services.CallerFrom(ctx); caller != nil {
		in.OwnerID = caller.UserID
		if in.Email == "" {
			in.Email = caller.Email
		}
	}

	res, err := s.questions.Submit(ctx, in)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusCreated, newCheckoutView(res))
	return nil
}

func (s *Server) confirmPayment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body confirmPaymentRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	q, err := s.questions.ConfirmPayment(ctx, body.SessionID)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, paymentView{QuestionID: q.ID, Status: string(q.Status), PaymentStatus: string(q.PaymentStatus)})
	return nil
}

func (s *Server) listMine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller := services.CallerFrom(ctx)
	qs, err := s.questions.ListMine(ctx, caller)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, map[string]any{"questions": newQuestionViews(qs, caller.IsAdmin())})
	return nil
}

func (s *Server) adminStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st, err := s.questions.AdminStats(ctx)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newStatsView(st))
	return nil
}

func (s *Server) adminListAll(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	qs, err := s.questions.AdminListAll(ctx, query.Get("status"), query.Get("urgency"))
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, map[string]any{"questions": newQuestionViews(qs, true)})
	return nil
}

func (s *Server) getQuestion(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	caller := services.CallerFrom(ctx)
	detail, err := s.questions.Get(ctx, s.pathID(r), caller)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newQuestionDetailView(detail, caller.IsAdmin()))
	return nil
}

func (s *Server) renewPaymentSession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := s.questions.RenewPaymentSession(ctx, s.pathID(r))
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newCheckoutView(res))
	return nil
}

func (s *Server) addAttachment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body attachmentRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	a, err := s.questions.AddAttachment(ctx, s.pathID(r), services.CallerFrom(ctx), services.AttachmentInput{
		Filename: body.Filename,
		FileURL:  body.FileURL,
		FileSize: body.FileSize,
		MimeType: body.MimeType,
	})
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusCreated, newAttachmentView(a))
	return nil
}

func (s *Server) adminSetStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body setStatusRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	caller := services.CallerFrom(ctx)
	q, err := s.questions.AdminSetStatus(ctx, s.pathID(r), body.Status, caller.UserID, body.Note)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newQuestionView(q, true))
	return nil
}

func (s *Server) adminPublishAnswer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body publishAnswerRequest
	if err := s.decode(r, &body); err != nil {
		return err
	}
	caller := services.CallerFrom(ctx)
	q, err := s.questions.AdminPublishAnswer(ctx, s.pathID(r), body.AnswerText, caller.UserID)
	if err != nil {
		return err
	}
	s.respond(ctx, w, http.StatusOK, newQuestionView(q, true))
	return nil
}

func (s *Server) stripeWebhook(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, "webhook body could not be read", err)
	}

	result, err := s.questions.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	if !result.Handled {
		log.Printf("[PAYMENT] Webhook %s acknowledged without action", result.EventType)
	}
	s.respond(ctx, w, http.StatusOK, map[string]any{"received": true, "handled": result.Handled})
	return nil
}
