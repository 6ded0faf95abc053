package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicDefaultTimeout = 120 * time.Second
)

// AnthropicConfig holds configuration for the Anthropic backend.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AnthropicClient calls the Anthropic messages API with forced tool use.
type AnthropicClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model      string              `json:"model"`
	MaxTokens  int                 `json:"max_tokens"`
	Tools      []anthropicTool     `json:"tools"`
	ToolChoice anthropicToolChoice `json:"tool_choice"`
	Messages   []anthropicMessage  `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = anthropicDefaultTimeout
	}
	return &AnthropicClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

func (c *AnthropicClient) Name() string { return "Anthropic" }
func (c *AnthropicClient) Close() error { return nil }

// Invoke posts one /v1/messages request with tool_choice forced to
// req.Tool and returns the tool input payload.
func (c *AnthropicClient) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Tools: []anthropicTool{{
			Name:        req.Tool.Name,
			Description: req.Tool.Description,
			InputSchema: req.Tool.InputSchema,
		}},
		ToolChoice: anthropicToolChoice{Type: "tool", Name: req.Tool.Name},
		Messages:   []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, NewPermanentError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, NewPermanentError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if msgResp.Error != nil {
			msg = msgResp.Error.Message
		}
		err := fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, msg)
		// Rate limits and server errors are transient; everything else
		// (bad request, auth) will not resolve with retries.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, NewPermanentError(err)
	}

	for _, block := range msgResp.Content {
		if block.Type == "tool_use" && block.Name == req.Tool.Name {
			return block.Input, nil
		}
	}
	return nil, ErrNoToolUse
}
