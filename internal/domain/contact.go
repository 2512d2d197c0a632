package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionStatus is the delivery lifecycle of a submission.
// received -> emailed | email_failed, nothing after that.
type SubmissionStatus string

const (
	StatusReceived    SubmissionStatus = "received"
	StatusEmailed     SubmissionStatus = "emailed"
	StatusEmailFailed SubmissionStatus = "email_failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusEmailed || s == StatusEmailFailed
}

// Verification outcomes recorded alongside a submission.
const (
	Verified    = "verified"
	NotVerified = "not-verified"
)

// Unknown is stored for client metadata the transport could not provide.
const Unknown = "unknown"

// Submission sources, one per HTTP entry point.
const (
	SourceContact   = "contact"
	SourceSendEmail = "send-email"
)

// Submission represents a contact form submission
type Submission struct {
	ID                string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name              string           `gorm:"not null" json:"name"`
	Email             string           `gorm:"not null;index" json:"email"`
	Message           string           `gorm:"type:text;not null" json:"message"`
	Status            SubmissionStatus `gorm:"type:varchar(16);not null;index;default:'received'" json:"status"`
	Source            string           `gorm:"type:varchar(16);not null" json:"source"`
	UserAgent         string           `gorm:"not null" json:"user_agent"`
	IP                string           `gorm:"column:ip;not null" json:"ip"`
	Verification      string           `gorm:"type:varchar(16);not null" json:"verification"`
	VerificationScore *float64         `json:"verification_score,omitempty"`
	SubmittedAt       *time.Time       `json:"submitted_at,omitempty"`
	CreatedAt         time.Time        `gorm:"not null" json:"created_at"`
	EmailSentAt       *time.Time       `json:"email_sent_at,omitempty"`
	NotificationError *string          `gorm:"type:text" json:"notification_error,omitempty"`
	UpdatedAt         *time.Time       `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "contact_submissions"
}

// Prepare assigns the server-owned fields of a new submission: id, creation
// time, initial status and the unknown sentinel for missing metadata.
func (s *Submission) Prepare(now time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now.UTC()
	s.Status = StatusReceived
	s.EmailSentAt = nil
	s.NotificationError = nil
	s.UpdatedAt = nil
	if s.UserAgent == "" {
		s.UserAgent = Unknown
	}
	if s.IP == "" {
		s.IP = Unknown
	}
	if s.Verification == "" {
		s.Verification = NotVerified
	}
}

// BeforeCreate hook
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.Prepare(tx.NowFunc())
	}
	return nil
}
