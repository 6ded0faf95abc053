package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists documents and analysis fingerprints. The
// schema is created lazily on first use.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres dials the database with the pgx stdlib driver.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    doc_type TEXT NOT NULL DEFAULT '',
    folder_path TEXT NOT NULL DEFAULT '',
    section TEXT NOT NULL DEFAULT '',
    subsection TEXT NOT NULL DEFAULT '',
    is_generated BOOLEAN NOT NULL DEFAULT FALSE,
    repository_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_documents_product_id ON documents(product_id);
CREATE TABLE IF NOT EXISTS analysis_fingerprints (
    product_id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, doc *Document) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document id is required")
	}
	if strings.TrimSpace(doc.ProductID) == "" {
		return fmt.Errorf("product_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (id, product_id, title, content, doc_type, folder_path, section, subsection, is_generated, repository_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id)
DO UPDATE SET title=EXCLUDED.title, content=EXCLUDED.content, doc_type=EXCLUDED.doc_type,
    folder_path=EXCLUDED.folder_path, section=EXCLUDED.section, subsection=EXCLUDED.subsection,
    is_generated=EXCLUDED.is_generated, repository_id=EXCLUDED.repository_id, updated_at=EXCLUDED.updated_at
`, doc.ID, doc.ProductID, doc.Title, doc.Content, doc.Type, doc.FolderPath, doc.Section, doc.Subsection, doc.IsGenerated, doc.RepositoryID, time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, product_id, title, content, doc_type, folder_path, section, subsection, is_generated, repository_id, created_at, updated_at
FROM documents WHERE id=$1`, id)
	return scanDocument(row)
}

func (s *PostgresStore) ListByProduct(ctx context.Context, productID string) ([]*Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, product_id, title, content, doc_type, folder_path, section, subsection, is_generated, repository_id, created_at, updated_at
FROM documents WHERE product_id=$1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *PostgresStore) FindChangelog(ctx context.Context, productID string) (*Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, product_id, title, content, doc_type, folder_path, section, subsection, is_generated, repository_id, created_at, updated_at
FROM documents WHERE product_id=$1 AND (doc_type='changelog' OR LOWER(title)='changelog')
ORDER BY created_at LIMIT 1`, productID)
	return scanDocument(row)
}

func (s *PostgresStore) UpdateFolder(ctx context.Context, id, folderPath string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET folder_path=$1, updated_at=$2 WHERE id=$3`, folderPath, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetFingerprint(ctx context.Context, productID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return "", err
	}
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM analysis_fingerprints WHERE product_id=$1`, productID).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return fp, err
}

func (s *PostgresStore) SetFingerprint(ctx context.Context, productID, fingerprint string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO analysis_fingerprints (product_id, fingerprint, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (product_id)
DO UPDATE SET fingerprint=EXCLUDED.fingerprint, updated_at=EXCLUDED.updated_at
`, productID, fingerprint, time.Now())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.ProductID, &doc.Title, &doc.Content, &doc.Type, &doc.FolderPath,
		&doc.Section, &doc.Subsection, &doc.IsGenerated, &doc.RepositoryID, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
