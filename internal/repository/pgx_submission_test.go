package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/domain"
)

// The pgx repository needs a real Postgres; set TEST_DATABASE_URL to run it.
func newPgxTestRepository(t *testing.T) *PgxSubmissionRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := ConnectPgx(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPgxSubmissionRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestPgxSubmissionRepository_Lifecycle(t *testing.T) {
	repo := newPgxTestRepository(t)
	ctx := context.Background()

	score := 0.9
	s := newSubmission("pgx@x.com")
	s.Verification = domain.Verified
	s.VerificationScore = &score
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceived, got.Status)
	require.NotNil(t, got.VerificationScore)
	assert.Equal(t, 0.9, *got.VerificationScore)

	require.NoError(t, repo.MarkEmailed(ctx, s.ID, time.Now()))
	assert.ErrorIs(t, repo.MarkEmailFailed(ctx, s.ID, "late"), ErrInvalidTransition)

	emailed, err := repo.List(ctx, ListOptions{Status: domain.StatusEmailed, Limit: maxListLimit})
	require.NoError(t, err)
	var found bool
	for _, e := range emailed {
		if e.ID == s.ID {
			found = true
			assert.NotNil(t, e.EmailSentAt)
		}
	}
	assert.True(t, found)
}

func TestPgxSubmissionRepository_UnknownID(t *testing.T) {
	repo := newPgxTestRepository(t)

	_, err := repo.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}
