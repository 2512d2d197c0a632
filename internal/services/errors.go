package services

import (
	"errors"
	"strings"

	apperrors "portfolio/pkg/errors"
)

// Field names reported in validation failures, in report order.
var validationFieldOrder = []string{"name", "email", "message", "timestamp"}

// NewValidationError builds a validation failure listing every rejected field.
func NewValidationError(fields map[string]string) *apperrors.AppError {
	reasons := make([]string, 0, len(fields))
	for _, f := range validationFieldOrder {
		if r, ok := fields[f]; ok {
			reasons = append(reasons, r)
		}
	}
	err := apperrors.New(apperrors.ErrCodeValidation, strings.Join(reasons, " "))
	err.Fields = fields
	return err
}

// NewVerificationError reports a rejected human-verification check.
func NewVerificationError() *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeVerification, "Verification failed. Please try again.")
}

// NewExpiredRequestError reports a submission outside the freshness window.
func NewExpiredRequestError() *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeExpired, "Request expired. Please try again.")
}

// NewPersistenceError wraps a store failure.
func NewPersistenceError(err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodePersistence, "failed to save submission", err)
}

// NewNotificationError wraps a delivery failure.
func NewNotificationError(err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodeNotification, "notification delivery failed", err)
}

// failureReason is what gets recorded on a submission whose notification failed.
func failureReason(err error) string {
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}
