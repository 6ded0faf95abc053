package jobstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps jobs in a map and lazily evicts expired ones on
// read. Suitable for a single process; use PostgresStore when pollers
// and workers are separate processes.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: map[string]*Job{}, now: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, id, productID string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	job := &Job{
		ID:        id,
		ProductID: productID,
		Status:    StatusGenerating,
		Progress:  StageAnalyzing,
		CreatedAt: now,
		ExpiresAt: now.Add(JobTTL),
	}
	s.jobs[id] = job
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, id, progress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	job.Progress = progress
	return nil
}

func (s *MemoryStore) SetCompleted(ctx context.Context, id, content, suggestedTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	job.Status = StatusCompleted
	job.Progress = "Complete"
	job.Content = content
	job.SuggestedTitle = suggestedTitle
	return nil
}

func (s *MemoryStore) SetFailed(ctx context.Context, id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	job.Status = StatusFailed
	job.Error = SanitizeError(cause)
	return nil
}

func (s *MemoryStore) SetCancelled(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	if !ok {
		return false, ErrNotFound
	}
	if job.Status != StatusGenerating {
		return false, nil
	}
	job.Status = StatusCancelled
	return true, nil
}

func (s *MemoryStore) IsCancelled(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.live(id)
	return ok && job.Status == StatusCancelled
}

// CleanupExpired removes every expired job and returns the count.
func (s *MemoryStore) CleanupExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, job := range s.jobs {
		if now.After(job.ExpiresAt) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// live returns the job unless it has expired, evicting it if so.
func (s *MemoryStore) live(id string) (*Job, bool) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	if s.now().After(job.ExpiresAt) {
		delete(s.jobs, id)
		return nil, false
	}
	return job, true
}
