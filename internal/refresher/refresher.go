// Package refresher re-checks existing documents against the current
// codebase and rewrites the ones that have drifted.
package refresher

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docsmith/internal/analyzer"
	"docsmith/internal/llm"
	"docsmith/internal/source"
	"docsmith/internal/store"
	"docsmith/internal/util/jsonutil"
)

const (
	StatusUpdated   = "updated"
	StatusUnchanged = "unchanged"
	StatusError     = "error"
)

// contextBudget bounds the source content carried per refresh prompt.
const contextBudget = 50_000

type Outcome struct {
	DocumentID string
	Title      string
	Status     string
	Summary    string
	Content    string // new content when Status == updated
}

type BulkResult struct {
	Checked   int
	Updated   int
	Unchanged int
	Errors    int
	Details   []Outcome
}

type ProgressFunc func(current, total int, title string)

type refreshPayload struct {
	NeedsUpdate bool   `json:"needs_update"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
}

func refreshToolSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "save_refresh_result",
		Description: "Report whether the document needs updating, with replacement content when it does",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"needs_update": map[string]any{"type": "boolean"},
				"summary":      map[string]any{"type": "string", "description": "What changed, or why nothing did"},
				"content":      map[string]any{"type": "string", "description": "Full replacement markdown when needs_update is true"},
			},
			"required": []string{"needs_update", "summary"},
		},
	}
}

type Refresher struct {
	client   llm.Client
	docs     store.DocumentStore
	analyzer *analyzer.Analyzer
}

func New(client llm.Client, docs store.DocumentStore, a *analyzer.Analyzer) *Refresher {
	return &Refresher{
		client:   llm.Wrap(client, llm.Retry(llm.MaxRetries, llm.GenerationRetryDelays)),
		docs:     docs,
		analyzer: a,
	}
}

// RefreshDocument compares one document against the files it appears to
// describe. Updated content is persisted before the outcome is
// returned.
func (r *Refresher) RefreshDocument(ctx context.Context, doc *store.Document, codebase *analyzer.Context) Outcome {
	out := Outcome{DocumentID: doc.ID, Title: doc.Title}

	relevant := relevantFiles(doc, codebase, contextBudget)
	if len(relevant) == 0 {
		out.Status = StatusUnchanged
		out.Summary = "No relevant source files found to compare against"
		return out
	}

	raw, err := r.client.Invoke(ctx, llm.Request{
		Model:     llm.ModelSonnet,
		MaxTokens: llm.MaxTokensGeneration,
		Prompt:    buildRefreshPrompt(doc, relevant),
		Tool:      refreshToolSchema(),
	})
	if err != nil {
		if llm.IsPermanent(err) {
			out.Status = StatusUnchanged
			out.Summary = "Failed to parse response"
			return out
		}
		out.Status = StatusError
		out.Summary = err.Error()
		return out
	}

	var payload refreshPayload
	if perr := jsonutil.UnmarshalRaw(raw, &payload); perr != nil {
		out.Status = StatusUnchanged
		out.Summary = "Failed to parse response"
		return out
	}

	if !payload.NeedsUpdate || strings.TrimSpace(payload.Content) == "" {
		out.Status = StatusUnchanged
		out.Summary = payload.Summary
		return out
	}

	doc.Content = payload.Content
	if err := r.docs.Put(ctx, doc); err != nil {
		out.Status = StatusError
		out.Summary = err.Error()
		return out
	}
	out.Status = StatusUpdated
	out.Summary = payload.Summary
	out.Content = payload.Content
	return out
}

// RefreshAll analyzes once and refreshes every document of a product.
// One document's failure never stops the rest.
func (r *Refresher) RefreshAll(ctx context.Context, productID string, repos []source.RepoRef, onProgress ProgressFunc) BulkResult {
	var bulk BulkResult

	codebase, err := r.analyzer.Analyze(ctx, repos)
	if err != nil {
		bulk.Errors = 1
		bulk.Details = append(bulk.Details, Outcome{
			Status:  StatusError,
			Summary: fmt.Sprintf("analysis failed: %v", err),
		})
		return bulk
	}

	docs, err := r.docs.ListByProduct(ctx, productID)
	if err != nil {
		bulk.Errors = 1
		bulk.Details = append(bulk.Details, Outcome{Status: StatusError, Summary: err.Error()})
		return bulk
	}

	for i, doc := range docs {
		notifyProgress(onProgress, i+1, len(docs), doc.Title)

		out := r.RefreshDocument(ctx, doc, codebase)
		bulk.Checked++
		switch out.Status {
		case StatusUpdated:
			bulk.Updated++
		case StatusUnchanged:
			bulk.Unchanged++
		default:
			bulk.Errors++
		}
		bulk.Details = append(bulk.Details, out)
	}
	return bulk
}

func notifyProgress(fn ProgressFunc, current, total int, title string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("refresher: progress callback panicked: %v", r)
		}
	}()
	fn(current, total, title)
}

func buildRefreshPrompt(doc *store.Document, relevant []analyzer.FileContent) string {
	var b strings.Builder

	b.WriteString("You maintain documentation for a codebase. Decide whether the document below is out of date relative to the current source, and rewrite it if so.\n\n")
	fmt.Fprintf(&b, "## Document: %s (%s)\n```markdown\n%s\n```\n\n", doc.Title, doc.Type, doc.Content)

	b.WriteString("## Current Source Files\n")
	for _, f := range relevant {
		fmt.Fprintf(&b, "### `%s`\n```\n%s\n```\n\n", f.Path, f.Content)
	}

	b.WriteString(`## Task
Report needs_update=false with a short summary if the document still
matches the code. If it has drifted, report needs_update=true, a
summary of what changed, and the full corrected document as content.
Keep the document's structure and tone; change only what the code
contradicts.

Use the save_refresh_result tool.
`)
	return b.String()
}
