package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

var (
	// ErrNotFound is returned when no submission has the requested id.
	ErrNotFound = errors.New("submission not found")
	// ErrInvalidTransition is returned when a status update targets a
	// submission that already reached a terminal status.
	ErrInvalidTransition = errors.New("submission status already final")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListOptions carries filter and pagination parameters for listing submissions.
type ListOptions struct {
	// Status filters by status; empty returns every submission.
	Status domain.SubmissionStatus
	Limit  int
	Offset int
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Limit > maxListLimit {
		o.Limit = maxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SubmissionRepository persists submissions through gorm.
type SubmissionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSubmissionRepository constructs a repository.
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new submission in the received state. The id and
// creation time are assigned here.
func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	start := time.Now()
	s.Prepare(r.now())
	err := r.db.WithContext(ctx).Create(s).Error
	metrics.RecordDBQuery("submission_create", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// MarkEmailed moves a received submission to emailed.
func (r *SubmissionRepository) MarkEmailed(ctx context.Context, id string, sentAt time.Time) error {
	return r.transition(ctx, id, map[string]any{
		"status":        domain.StatusEmailed,
		"email_sent_at": sentAt.UTC(),
	})
}

// MarkEmailFailed moves a received submission to email_failed and keeps the
// delivery error.
func (r *SubmissionRepository) MarkEmailFailed(ctx context.Context, id string, reason string) error {
	return r.transition(ctx, id, map[string]any{
		"status":             domain.StatusEmailFailed,
		"notification_error": reason,
	})
}

func (r *SubmissionRepository) transition(ctx context.Context, id string, fields map[string]any) error {
	start := time.Now()
	fields["updated_at"] = r.now()
	res := r.db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("id = ? AND status = ?", id, domain.StatusReceived).
		Updates(fields)
	metrics.RecordDBQuery("submission_update_status", time.Since(start), res.Error)
	if res.Error != nil {
		return fmt.Errorf("update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// Get returns a submission by id.
func (r *SubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	start := time.Now()
	var s domain.Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	metrics.RecordDBQuery("submission_get", time.Since(start), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select submission: %w", err)
	}
	return &s, nil
}

// List returns submissions, newest first.
func (r *SubmissionRepository) List(ctx context.Context, opts ListOptions) ([]domain.Submission, error) {
	opts = opts.normalized()
	start := time.Now()

	q := r.db.WithContext(ctx).Order("created_at DESC").Offset(opts.Offset).Limit(opts.Limit)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	var out []domain.Submission
	err := q.Find(&out).Error
	metrics.RecordDBQuery("submission_list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// Ping checks the database and refreshes the connection gauges.
func (r *SubmissionRepository) Ping(ctx context.Context) error {
	if err := database.HealthCheck(ctx, r.db); err != nil {
		return err
	}
	if stats, err := database.GetStats(r.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
	return nil
}
