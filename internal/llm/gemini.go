package llm

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client. The
// Gemini API has no forced-tool mode compatible with our schemas, so the
// tool contract is emulated: the schema is embedded in the prompt and the
// model is asked for application/json output matching it.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-pro"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	schema, _ := json.MarshalIndent(req.Tool.InputSchema, "", "  ")
	full := req.Prompt +
		"\n\nRespond with a single JSON object that would be a valid input for the `" +
		req.Tool.Name + "` tool. JSON Schema:\n" + string(schema)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoToolUse
	}
	txt := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(txt) == "" {
		return nil, ErrNoToolUse
	}
	return json.RawMessage(txt), nil
}
