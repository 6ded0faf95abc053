package generator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"docsmith/internal/analyzer"
	"docsmith/internal/llm"
	"docsmith/internal/planner"
	"docsmith/internal/store"
	"docsmith/internal/util/jsonutil"
)

// MaxContextTokens bounds how much source content one document's
// prompt may carry.
const MaxContextTokens = 50_000

type Result struct {
	Success  bool
	Document *store.Document
	Error    string
}

type BatchResult struct {
	TotalGenerated int
	Failed         []string
}

// ProgressFunc is called before each batch item. Panics are swallowed;
// progress reporting never gates generation.
type ProgressFunc func(current, total int, title string)

type savedDocument struct {
	Content string `json:"content"`
}

func documentToolSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "save_document",
		Description: "Save the generated documentation content",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{"type": "string", "description": "Full markdown content of the document"},
			},
			"required": []string{"content"},
		},
	}
}

// Generator writes planned documents one at a time.
type Generator struct {
	client llm.Client
	docs   store.DocumentStore
}

func New(client llm.Client, docs store.DocumentStore) *Generator {
	return &Generator{
		client: llm.Wrap(client, llm.Retry(llm.MaxRetries, llm.GenerationRetryDelays)),
		docs:   docs,
	}
}

// Generate produces and persists one document. A parse failure yields
// a placeholder document rather than an error; only exhausted retries
// and store failures surface as unsuccessful results.
func (g *Generator) Generate(ctx context.Context, doc planner.PlannedDocument, codebase *analyzer.Context, productID string) Result {
	relevant := selectRelevantFiles(codebase, doc.SourceFiles, MaxContextTokens)
	prompt := buildGenerationPrompt(doc, codebase, relevant)

	raw, err := g.client.Invoke(ctx, llm.Request{
		Model:     llm.SelectModel(doc.DocType),
		MaxTokens: llm.MaxTokensGeneration,
		Prompt:    prompt,
		Tool:      documentToolSchema(),
	})

	content := ""
	if err == nil {
		var saved savedDocument
		if perr := jsonutil.UnmarshalRaw(raw, &saved); perr == nil {
			content = saved.Content
		}
	} else if !llm.IsPermanent(err) {
		return Result{Success: false, Error: err.Error()}
	}
	if strings.TrimSpace(content) == "" {
		log.Printf("generator: %q: no usable content, saving placeholder", doc.Title)
		content = fmt.Sprintf("# %s\n\nContent generation failed.", doc.Title)
	}

	record := &store.Document{
		ID:          uuid.NewString(),
		ProductID:   productID,
		Title:       doc.Title,
		Content:     content,
		Type:        doc.DocType,
		FolderPath:  doc.Folder,
		Section:     doc.Section,
		Subsection:  doc.Subsection,
		IsGenerated: true,
	}
	if err := g.docs.Put(ctx, record); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Document: record}
}

// GenerateBatch walks the plan sequentially. One document's failure is
// recorded and does not stop the rest.
func (g *Generator) GenerateBatch(ctx context.Context, plan *planner.DocumentationPlan, codebase *analyzer.Context, productID string, onProgress ProgressFunc) BatchResult {
	var batch BatchResult
	total := len(plan.PlannedDocuments)

	for i, doc := range plan.PlannedDocuments {
		notifyProgress(onProgress, i+1, total, doc.Title)

		res := g.Generate(ctx, doc, codebase, productID)
		if !res.Success {
			log.Printf("generator: %q failed: %s", doc.Title, res.Error)
			batch.Failed = append(batch.Failed, doc.Title)
			continue
		}
		batch.TotalGenerated++
	}
	return batch
}

func notifyProgress(fn ProgressFunc, current, total int, title string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("generator: progress callback panicked: %v", r)
		}
	}()
	fn(current, total, title)
}

// selectRelevantFiles picks the files a document's prompt should carry:
// exact path matches first, then substring or suffix matches, all
// within the token budget. With no matches at all, tier-1 files stand
// in so the prompt never goes out empty.
func selectRelevantFiles(codebase *analyzer.Context, requested []string, budget int) []analyzer.FileContent {
	var selected []analyzer.FileContent
	used := 0
	taken := map[string]bool{}

	add := func(f analyzer.FileContent) bool {
		if taken[f.Path] || used+f.TokenEstimate > budget {
			return false
		}
		taken[f.Path] = true
		selected = append(selected, f)
		used += f.TokenEstimate
		return true
	}

	for _, want := range requested {
		matched := false
		for _, f := range codebase.AllKeyFiles {
			if f.Path == want {
				add(f)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, f := range codebase.AllKeyFiles {
			if strings.Contains(f.Path, want) || strings.HasSuffix(f.Path, want) {
				add(f)
			}
		}
	}

	if len(selected) == 0 {
		for _, f := range codebase.AllKeyFiles {
			if f.Tier == 1 {
				add(f)
			}
		}
	}
	return selected
}
