package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

// ConnectPgx opens a pgx connection pool using the provided DSN.
func ConnectPgx(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// PgxSubmissionRepository persists submissions with hand-written SQL over a
// pgx pool. The table layout matches the gorm model so either backend can
// serve the same database.
type PgxSubmissionRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPgxSubmissionRepository constructs a repository.
func NewPgxSubmissionRepository(pool *pgxpool.Pool) *PgxSubmissionRepository {
	return &PgxSubmissionRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the submissions table if needed.
func (r *PgxSubmissionRepository) EnsureSchema(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	id VARCHAR(36) PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	message TEXT NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'received',
	source VARCHAR(16) NOT NULL,
	user_agent TEXT NOT NULL,
	ip TEXT NOT NULL,
	verification VARCHAR(16) NOT NULL,
	verification_score DOUBLE PRECISION,
	submitted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	email_sent_at TIMESTAMPTZ,
	notification_error TEXT,
	updated_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_email ON contact_submissions(email);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_status ON contact_submissions(status);`
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping is used by the readiness endpoint.
func (r *PgxSubmissionRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return err
	}
	stat := r.pool.Stat()
	metrics.UpdateDBConnections(int(stat.AcquiredConns()), int(stat.IdleConns()))
	return nil
}

// Create inserts a new submission in the received state.
func (r *PgxSubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	start := time.Now()
	s.Prepare(r.now())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_submissions
			(id, name, email, message, status, source, user_agent, ip, verification,
			 verification_score, submitted_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, s.ID, s.Name, s.Email, s.Message, s.Status, s.Source, s.UserAgent, s.IP, s.Verification,
		s.VerificationScore, s.SubmittedAt, s.CreatedAt)
	metrics.RecordDBQuery("submission_create", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// MarkEmailed moves a received submission to emailed.
func (r *PgxSubmissionRepository) MarkEmailed(ctx context.Context, id string, sentAt time.Time) error {
	sent := sentAt.UTC()
	return r.transition(ctx, id, domain.StatusEmailed, &sent, nil)
}

// MarkEmailFailed moves a received submission to email_failed.
func (r *PgxSubmissionRepository) MarkEmailFailed(ctx context.Context, id string, reason string) error {
	return r.transition(ctx, id, domain.StatusEmailFailed, nil, &reason)
}

func (r *PgxSubmissionRepository) transition(ctx context.Context, id string, status domain.SubmissionStatus, sentAt *time.Time, reason *string) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE contact_submissions
		SET status = $1,
			email_sent_at = $2,
			notification_error = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`, status, sentAt, reason, r.now(), id, domain.StatusReceived)
	metrics.RecordDBQuery("submission_update_status", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

const selectSubmission = `
	SELECT id, name, email, message, status, source, user_agent, ip, verification,
		verification_score, submitted_at, created_at, email_sent_at, notification_error, updated_at
	FROM contact_submissions`

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var s domain.Submission
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Message, &s.Status, &s.Source, &s.UserAgent, &s.IP,
		&s.Verification, &s.VerificationScore, &s.SubmittedAt, &s.CreatedAt, &s.EmailSentAt,
		&s.NotificationError, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns a submission by id.
func (r *PgxSubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	start := time.Now()
	s, err := scanSubmission(r.pool.QueryRow(ctx, selectSubmission+` WHERE id = $1`, id))
	metrics.RecordDBQuery("submission_get", time.Since(start), err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select submission: %w", err)
	}
	return s, nil
}

// List returns submissions, newest first.
func (r *PgxSubmissionRepository) List(ctx context.Context, opts ListOptions) ([]domain.Submission, error) {
	opts = opts.normalized()
	start := time.Now()

	query := selectSubmission + ` WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, string(opts.Status), opts.Limit, opts.Offset)
	if err != nil {
		metrics.RecordDBQuery("submission_list", time.Since(start), err)
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			metrics.RecordDBQuery("submission_list", time.Since(start), err)
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, *s)
	}
	err = rows.Err()
	metrics.RecordDBQuery("submission_list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}
