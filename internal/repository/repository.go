// Package repository is the gorm-backed store for questions, users, and their logs.
package repository

import (
	stderrors "errors"
	"strings"
	"time"

	"askyaguy/internal/metrics"
	apperrors "askyaguy/pkg/errors"

	"gorm.io/gorm"
)

// observe records query timing; call as defer observe("op", time.Now(), &err)
func observe(operation string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, time.Since(start), *err)
}

// translate maps gorm errors onto application errors
func translate(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.New(apperrors.ErrCodeNotFound, notFoundMsg)
	case stderrors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return apperrors.Wrap(apperrors.ErrCodeConflict, "record already exists", err)
	}
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(err)
}

// isUniqueViolation catches driver errors the dialect does not translate
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
