package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.Create(ctx, "j1", "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusGenerating, job.Status)
	assert.Equal(t, StageAnalyzing, job.Progress)
	assert.Equal(t, JobTTL, job.ExpiresAt.Sub(job.CreatedAt))

	require.NoError(t, s.UpdateProgress(ctx, "j1", StageGenerating))
	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StageGenerating, got.Progress)

	require.NoError(t, s.SetCompleted(ctx, "j1", "# Doc", "API Guide"))
	got, err = s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "Complete", got.Progress)
	assert.Equal(t, "# Doc", got.Content)
	assert.Equal(t, "API Guide", got.SuggestedTitle)
}

func TestCancelOnlyWhileGenerating(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "j1", "p1")
	require.NoError(t, err)

	ok, err := s.SetCancelled(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.IsCancelled(ctx, "j1"))

	// Already cancelled: a second cancel is a no-op.
	ok, err = s.SetCancelled(ctx, "j1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Create(ctx, "j2", "p1")
	require.NoError(t, err)
	require.NoError(t, s.SetCompleted(ctx, "j2", "done", ""))
	ok, err = s.SetCancelled(ctx, "j2")
	require.NoError(t, err)
	assert.False(t, ok, "completed jobs cannot be cancelled")
}

func TestTTLEviction(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Create(ctx, "j1", "p1")
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(JobTTL + time.Second) }
	_, err = s.Get(ctx, "j1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(ctx, "j2", "p1")
	require.NoError(t, err)
	s.now = func() time.Time { return now.Add(3 * JobTTL) }
	assert.Equal(t, 1, s.CleanupExpired(ctx))
}

func TestSetFailedSanitizes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "j1", "p1")
	require.NoError(t, err)
	require.NoError(t, s.SetFailed(ctx, "j1", errors.New("anthropic.APIError: 500 {\"detail\":...}")))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "Failed to generate document. Please try again.", got.Error)
}

func TestSanitizeError(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"RateLimitError: too many requests", "Service is busy. Please try again in a few minutes."},
		{"request timeout after 300s", "Request timed out. Please try again."},
		{"APIError: bad gateway", "Failed to generate document. Please try again."},
		{"anthropic client crashed", "Failed to generate document. Please try again."},
		{"repository not found", "repository not found"},
		{"internal state: {\"key\": \"sk-ant-...\"}", "An unexpected error occurred. Please try again."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeError(errors.New(tc.in)), tc.in)
	}
	assert.Empty(t, SanitizeError(nil))
}
