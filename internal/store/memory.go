package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory DocumentStore and FingerprintStore for
// tests and single-run CLI use.
type MemoryStore struct {
	mu           sync.RWMutex
	docs         map[string]*Document
	fingerprints map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:         map[string]*Document{},
		fingerprints: map[string]string{},
	}
}

func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cp := *doc
	if existing, ok := s.docs[doc.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.docs[doc.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) ListByProduct(ctx context.Context, productID string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Document
	for _, doc := range s.docs {
		if doc.ProductID == productID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) FindChangelog(ctx context.Context, productID string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.ProductID != productID {
			continue
		}
		if doc.Type == "changelog" || strings.EqualFold(doc.Title, "changelog") {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateFolder(ctx context.Context, id, folderPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.FolderPath = folderPath
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) GetFingerprint(ctx context.Context, productID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprints[productID], nil
}

func (s *MemoryStore) SetFingerprint(ctx context.Context, productID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints[productID] = fingerprint
	return nil
}
