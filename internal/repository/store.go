package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/domain"
)

// Store is implemented by both submission repositories.
type Store interface {
	Create(ctx context.Context, s *domain.Submission) error
	MarkEmailed(ctx context.Context, id string, sentAt time.Time) error
	MarkEmailFailed(ctx context.Context, id string, reason string) error
	Get(ctx context.Context, id string) (*domain.Submission, error)
	List(ctx context.Context, opts ListOptions) ([]domain.Submission, error)
	Ping(ctx context.Context) error
}

var (
	_ Store = (*SubmissionRepository)(nil)
	_ Store = (*PgxSubmissionRepository)(nil)
)

// Open connects the backend selected by cfg.Backend, makes sure the schema
// exists and returns the store with a function that releases it.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (Store, func(), error) {
	switch cfg.Backend {
	case "pgx":
		pool, err := ConnectPgx(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		repo := NewPgxSubmissionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Named("db").Info("using pgx store")
		return repo, pool.Close, nil
	case "", "gorm":
		db, err := database.Open(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := database.Close(db); err != nil {
				log.Named("db").Warn("error closing database", zap.Error(err))
			}
		}
		return NewSubmissionRepository(db), closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
