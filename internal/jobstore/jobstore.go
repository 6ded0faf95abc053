package jobstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Jobs expire an hour after creation whether or not anyone polled them.
const JobTTL = time.Hour

// Progress stage messages shown to pollers.
const (
	StageAnalyzing  = "Analyzing codebase..."
	StagePlanning   = "Planning document structure..."
	StageGenerating = "Generating content..."
	StageFinalizing = "Finalizing document..."
)

const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

var ErrNotFound = errors.New("jobstore: job not found")

// Job tracks one long-running generation request.
type Job struct {
	ID             string
	ProductID      string
	Status         string
	Progress       string
	Content        string
	SuggestedTitle string
	Error          string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Store tracks generation jobs. SetCancelled only succeeds while the
// job is still generating and reports whether it flipped the status.
type Store interface {
	Create(ctx context.Context, id, productID string) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	UpdateProgress(ctx context.Context, id, progress string) error
	SetCompleted(ctx context.Context, id, content, suggestedTitle string) error
	SetFailed(ctx context.Context, id string, cause error) error
	SetCancelled(ctx context.Context, id string) (bool, error)
	IsCancelled(ctx context.Context, id string) bool
	CleanupExpired(ctx context.Context) int
}

// SanitizeError maps internal failures to user-safe messages. Raw
// provider errors can leak prompts or keys, so only short clean
// messages pass through untouched.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "ratelimit"), strings.Contains(lower, "rate limit"):
		return "Service is busy. Please try again in a few minutes."
	case strings.Contains(lower, "apierror"):
		return "Failed to generate document. Please try again."
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return "Request timed out. Please try again."
	case strings.Contains(lower, "anthropic"):
		return "Failed to generate document. Please try again."
	}
	if len(msg) < 100 && !strings.ContainsAny(msg, "<>{}") {
		return msg
	}
	return "An unexpected error occurred. Please try again."
}
