package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "portfolio/pkg/errors"
)

func TestNewValidationError_OrdersReasons(t *testing.T) {
	err := NewValidationError(map[string]string{
		"message": "Message is required.",
		"name":    "Name is required.",
	})
	assert.Equal(t, apperrors.ErrCodeValidation, err.Code)
	assert.Equal(t, "Name is required. Message is required.", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestPipelineErrorsMapToStatus(t *testing.T) {
	assert.Equal(t, 400, apperrors.HTTPStatus(NewVerificationError()))
	assert.Equal(t, 400, apperrors.HTTPStatus(NewExpiredRequestError()))
	assert.Equal(t, 500, apperrors.HTTPStatus(NewPersistenceError(errors.New("down"))))
	assert.Equal(t, 500, apperrors.HTTPStatus(NewNotificationError(errors.New("down"))))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "smtp refused", failureReason(NewNotificationError(errors.New("smtp refused"))))
	assert.Equal(t, "plain", failureReason(errors.New("plain")))
}
