package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (retries, logging, etc.).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// GenerationRetryDelays is the shared backoff schedule for transient API
// errors across the planner, generator, and refresher paths.
var GenerationRetryDelays = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

// Retry retries Invoke up to maxAttempts, sleeping delays[i] between
// attempt i and i+1 (the last delay repeats if attempts exceed the
// schedule). Permanent errors are returned immediately. If the context
// is canceled, it stops immediately.
func Retry(maxAttempts int, delays []time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if len(delays) == 0 {
		delays = []time.Duration{time.Second}
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, delays: delays}
	}
}

type retrying struct {
	next   Client
	max    int
	delays []time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.Invoke(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsPermanent(err) {
			return nil, err
		}
		last = err
		if i == r.max-1 {
			break
		}
		d := r.delays[min(i, len(r.delays)-1)]
		log.Printf("llm: transient error (attempt %d/%d), retrying in %s: %v", i+1, r.max, d, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
	return nil, last
}

// WithLogging logs request size and errors. Provide a custom logger or nil
// to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	l.log.Printf("llm request (%s, tool=%s): %d bytes", req.Model, req.Tool.Name, len(req.Prompt))
	raw, err := l.next.Invoke(ctx, req)
	if err != nil {
		l.log.Printf("llm error (%s, tool=%s): %v", req.Model, req.Tool.Name, err)
	}
	return raw, err
}
