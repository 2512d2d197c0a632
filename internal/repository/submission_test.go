package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/domain"
)

func newTestRepository(t *testing.T) *SubmissionRepository {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///:memory:", Backend: "gorm"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return NewSubmissionRepository(db)
}

func newSubmission(email string) *domain.Submission {
	return &domain.Submission{
		Name:    "Al",
		Email:   email,
		Message: "Hello there, interested in working together!",
		Source:  domain.SourceContact,
	}
}

func TestSubmissionRepository_CreateAssignsServerFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newSubmission("al@x.com")
	require.NoError(t, repo.Create(ctx, s))

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, domain.StatusReceived, s.Status)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "al@x.com", got.Email)
	assert.Equal(t, domain.StatusReceived, got.Status)
	assert.Equal(t, domain.Unknown, got.UserAgent)
	assert.Equal(t, domain.Unknown, got.IP)
	assert.WithinDuration(t, s.CreatedAt, got.CreatedAt, time.Second)
	assert.Nil(t, got.EmailSentAt)
	assert.Nil(t, got.NotificationError)
}

func TestSubmissionRepository_MarkEmailed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newSubmission("al@x.com")
	require.NoError(t, repo.Create(ctx, s))

	sentAt := time.Now().UTC()
	require.NoError(t, repo.MarkEmailed(ctx, s.ID, sentAt))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmailed, got.Status)
	require.NotNil(t, got.EmailSentAt)
	assert.False(t, got.EmailSentAt.Before(got.CreatedAt.Truncate(time.Second)))
	assert.NotNil(t, got.UpdatedAt)
}

func TestSubmissionRepository_StatusIsMonotonic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newSubmission("al@x.com")
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.MarkEmailFailed(ctx, s.ID, "smtp: connection refused"))

	assert.ErrorIs(t, repo.MarkEmailed(ctx, s.ID, time.Now()), ErrInvalidTransition)
	assert.ErrorIs(t, repo.MarkEmailFailed(ctx, s.ID, "again"), ErrInvalidTransition)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmailFailed, got.Status)
	require.NotNil(t, got.NotificationError)
	assert.Equal(t, "smtp: connection refused", *got.NotificationError)
	assert.Nil(t, got.EmailSentAt)
}

func TestSubmissionRepository_UnknownID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.MarkEmailed(ctx, "missing", time.Now()), ErrNotFound)
}

func TestSubmissionRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := newSubmission("first@x.com")
	require.NoError(t, repo.Create(ctx, first))
	second := newSubmission("second@x.com")
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.MarkEmailed(ctx, second.ID, time.Now()))

	all, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	received, err := repo.List(ctx, ListOptions{Status: domain.StatusReceived})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, first.ID, received[0].ID)

	limited, err := repo.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListOptionsNormalized(t *testing.T) {
	assert.Equal(t, defaultListLimit, ListOptions{}.normalized().Limit)
	assert.Equal(t, maxListLimit, ListOptions{Limit: 10_000}.normalized().Limit)
	assert.Equal(t, 0, ListOptions{Offset: -3}.normalized().Offset)
}
