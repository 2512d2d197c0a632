package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionPrepare(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	s := &Submission{Name: "Al", Email: "al@x.com", Message: "Hello there, friend"}

	s.Prepare(now)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusReceived, s.Status)
	assert.Equal(t, time.UTC, s.CreatedAt.Location())
	assert.True(t, s.CreatedAt.Equal(now))
	assert.Equal(t, Unknown, s.UserAgent)
	assert.Equal(t, Unknown, s.IP)
	assert.Equal(t, NotVerified, s.Verification)
	assert.Nil(t, s.EmailSentAt)
	assert.Nil(t, s.NotificationError)
}

func TestSubmissionPrepare_KeepsIDAndMetadata(t *testing.T) {
	s := &Submission{ID: "fixed", UserAgent: "curl/8", IP: "10.0.0.1", Verification: Verified}
	s.Prepare(time.Now())

	assert.Equal(t, "fixed", s.ID)
	assert.Equal(t, "curl/8", s.UserAgent)
	assert.Equal(t, "10.0.0.1", s.IP)
	assert.Equal(t, Verified, s.Verification)
}

func TestSubmissionStatusTerminal(t *testing.T) {
	assert.False(t, StatusReceived.Terminal())
	assert.True(t, StatusEmailed.Terminal())
	assert.True(t, StatusEmailFailed.Terminal())
}
