package httpapi

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"

	apperrors "askyaguy/pkg/errors"

	goa "goa.design/goa/v3/pkg"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// StatusFor maps an error code to its HTTP status
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeAccessDenied:
		return http.StatusForbidden
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeConflict, apperrors.ErrCodeInvalidStatus:
		return http.StatusConflict
	case apperrors.ErrCodePaymentSession, apperrors.ErrCodeSessionVerification:
		return http.StatusBadGateway
	case apperrors.ErrCodePaymentNotCompleted:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// toServiceError converts any error into a goa ServiceError named after its
// code. Persistence and unclassified errors get a generic message.
func toServiceError(err error) (*goa.ServiceError, int) {
	code := apperrors.CodeOf(err)
	status := StatusFor(code)

	message := "internal server error"
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) && status != http.StatusInternalServerError {
		message = appErr.Message
	}

	fault := status >= http.StatusInternalServerError
	serr := goa.NewServiceError(stderrors.New(message), string(code), false, status == http.StatusBadGateway, fault)
	return serr, status
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	serr, status := toServiceError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s (id=%s): %v", serr.Name, serr.ID, err)
	}

	body := errorBody{Name: serr.Name, ID: serr.ID, Message: serr.Message}
	s.respond(ctx, w, status, body)
}
