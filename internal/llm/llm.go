package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoToolUse is returned when the model answered without the forced tool
// call. It is permanent: retrying the same prompt will not help, the caller
// has to apply its own fallback.
var ErrNoToolUse = errors.New("llm: response contains no tool use")

// ToolSchema describes the single tool a request forces the model to call.
// InputSchema is a JSON Schema fragment (type/object/properties/required).
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is one forced-tool completion call.
type Request struct {
	Model     string
	MaxTokens int
	Prompt    string
	Tool      ToolSchema
}

// Client is the boundary to a chat-completion backend. Invoke sends the
// prompt with the tool choice forced to req.Tool and returns the raw JSON
// payload the model passed to that tool. Cross-cutting concerns (retries,
// logging) are applied via Middleware.
type Client interface {
	Name() string
	Invoke(ctx context.Context, req Request) (json.RawMessage, error)
	Close() error
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is wrapped as non-retryable.
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr) || errors.Is(err, ErrNoToolUse)
}
