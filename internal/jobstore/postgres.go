package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists jobs so pollers can live in a different
// process than the worker doing the generation.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS generation_jobs (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    status TEXT NOT NULL,
    progress TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    suggested_title TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_jobs_expires ON generation_jobs(expires_at);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Create(ctx context.Context, id, productID string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	now := time.Now()
	job := &Job{
		ID:        id,
		ProductID: productID,
		Status:    StatusGenerating,
		Progress:  StageAnalyzing,
		CreatedAt: now,
		ExpiresAt: now.Add(JobTTL),
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO generation_jobs (id, product_id, status, progress, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET product_id=EXCLUDED.product_id, status=EXCLUDED.status, progress=EXCLUDED.progress,
    content='', suggested_title='', error='', created_at=EXCLUDED.created_at, expires_at=EXCLUDED.expires_at
`, job.ID, job.ProductID, job.Status, job.Progress, job.CreatedAt, job.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	var job Job
	err := s.db.QueryRowContext(ctx, `
SELECT id, product_id, status, progress, content, suggested_title, error, created_at, expires_at
FROM generation_jobs WHERE id=$1 AND expires_at > NOW()`, id).
		Scan(&job.ID, &job.ProductID, &job.Status, &job.Progress, &job.Content, &job.SuggestedTitle, &job.Error, &job.CreatedAt, &job.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, id, progress string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET progress=$1 WHERE id=$2 AND expires_at > NOW()`, progress, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCompleted(ctx context.Context, id, content, suggestedTitle string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE generation_jobs SET status=$1, progress='Complete', content=$2, suggested_title=$3
WHERE id=$4 AND expires_at > NOW()`, StatusCompleted, content, suggestedTitle, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetFailed(ctx context.Context, id string, cause error) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE generation_jobs SET status=$1, error=$2 WHERE id=$3 AND expires_at > NOW()`,
		StatusFailed, SanitizeError(cause), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCancelled(ctx context.Context, id string) (bool, error) {
	if err := s.ensureSchema(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE generation_jobs SET status=$1 WHERE id=$2 AND status=$3 AND expires_at > NOW()`,
		StatusCancelled, id, StatusGenerating)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}
	// Distinguish a missing job from one already past generating.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) IsCancelled(ctx context.Context, id string) bool {
	job, err := s.Get(ctx, id)
	return err == nil && job.Status == StatusCancelled
}

func (s *PostgresStore) CleanupExpired(ctx context.Context) int {
	if err := s.ensureSchema(); err != nil {
		return 0
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM generation_jobs WHERE expires_at <= NOW()`)
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}
