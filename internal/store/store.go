package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("store: not found")

// Document is one markdown document owned by a product. FolderPath is
// the logical folder ("blueprints", "plans", ...); empty means the
// product root, which is where the changelog lives.
type Document struct {
	ID           string
	ProductID    string
	Title        string
	Content      string
	Type         string
	FolderPath   string
	Section      string
	Subsection   string
	IsGenerated  bool
	RepositoryID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentStore persists documents. Put is an upsert keyed by ID.
type DocumentStore interface {
	Put(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	ListByProduct(ctx context.Context, productID string) ([]*Document, error)
	// FindChangelog returns the product's changelog document, if any.
	FindChangelog(ctx context.Context, productID string) (*Document, error)
	UpdateFolder(ctx context.Context, id, folderPath string) error
	Delete(ctx context.Context, id string) error
}

// FingerprintStore keeps the last analysis fingerprint per product so
// unchanged codebases can skip regeneration.
type FingerprintStore interface {
	GetFingerprint(ctx context.Context, productID string) (string, error)
	SetFingerprint(ctx context.Context, productID, fingerprint string) error
}
