package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FakeClient is an offline Client for tests. Responses are canned JSON
// payloads keyed by tool name; an optional Script hook can override the
// response per call (e.g. fail the second invocation).
type FakeClient struct {
	mu        sync.Mutex
	Responses map[string]json.RawMessage
	Script    func(call int, req Request) (json.RawMessage, error)
	Calls     []Request
}

func NewFakeClient(responses map[string]json.RawMessage) *FakeClient {
	if responses == nil {
		responses = map[string]json.RawMessage{}
	}
	return &FakeClient{Responses: responses}
}

func (f *FakeClient) Name() string { return "Fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	call := len(f.Calls)
	f.Calls = append(f.Calls, req)
	script := f.Script
	raw, ok := f.Responses[req.Tool.Name]
	f.mu.Unlock()

	if script != nil {
		return script(call, req)
	}
	if !ok {
		return nil, fmt.Errorf("fake llm: no canned response for tool %q", req.Tool.Name)
	}
	return raw, nil
}

// CallCount returns how many times Invoke was called.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
