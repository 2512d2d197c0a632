package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("wrapped AppError is found", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(ErrCodeExpired, "Request expired"))
		assert.Equal(t, ErrCodeExpired, CodeOf(err))
		assert.True(t, IsExpired(err))
		assert.False(t, IsValidation(err))
	})

	t.Run("plain error is internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternalError, CodeOf(stderrors.New("boom")))
	})

	t.Run("nil is not any kind", func(t *testing.T) {
		assert.False(t, IsPersistence(nil))
		assert.False(t, IsNotification(nil))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeValidation:    http.StatusBadRequest,
		ErrCodeVerification:  http.StatusBadRequest,
		ErrCodeExpired:       http.StatusBadRequest,
		ErrCodeBadRequest:    http.StatusBadRequest,
		ErrCodePersistence:   http.StatusInternalServerError,
		ErrCodeInternalError: http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(code, "x")), code)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodePersistence, "failed to save submission", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PERSISTENCE_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
}
