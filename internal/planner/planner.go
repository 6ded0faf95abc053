package planner

import (
	"context"
	"errors"
	"log"
	"sort"

	"docsmith/internal/analyzer"
	"docsmith/internal/llm"
	"docsmith/internal/util/jsonutil"
)

// PlannedDocument is one document the model decided to write.
type PlannedDocument struct {
	Title       string   `json:"title"`
	DocType     string   `json:"doc_type"`
	Purpose     string   `json:"purpose"`
	KeyTopics   []string `json:"key_topics"`
	SourceFiles []string `json:"source_files"`
	Priority    int      `json:"priority"`
	Folder      string   `json:"folder"`
	Section     string   `json:"section"`
	Subsection  string   `json:"subsection"`
}

// DocumentationPlan is the full plan, ordered by ascending priority.
type DocumentationPlan struct {
	Summary          string            `json:"summary"`
	CodebaseSummary  string            `json:"codebase_summary"`
	PlannedDocuments []PlannedDocument `json:"planned_documents"`
	SkippedExisting  []string          `json:"skipped_existing"`
}

type PlannerResult struct {
	Success bool
	Plan    *DocumentationPlan
	Error   string
}

// ExistingDoc is what the model sees about documents that already exist.
type ExistingDoc struct {
	Title  string
	Type   string
	Folder string
}

var validDocTypes = map[string]bool{
	"overview":     true,
	"architecture": true,
	"guide":        true,
	"reference":    true,
	"concept":      true,
}

func planToolSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "save_documentation_plan",
		Description: "Save the documentation plan for this codebase",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":          map[string]any{"type": "string", "description": "One-paragraph summary of the planned documentation"},
				"codebase_summary": map[string]any{"type": "string", "description": "What this codebase is and does"},
				"planned_documents": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":        map[string]any{"type": "string"},
							"doc_type":     map[string]any{"type": "string", "enum": []string{"overview", "architecture", "guide", "reference", "concept"}},
							"purpose":      map[string]any{"type": "string"},
							"key_topics":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"source_files": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"priority":     map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
							"folder":       map[string]any{"type": "string"},
							"section":      map[string]any{"type": "string"},
							"subsection":   map[string]any{"type": "string"},
						},
						"required": []string{"title", "doc_type", "purpose", "key_topics", "source_files", "priority", "folder"},
					},
				},
				"skipped_existing": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"summary", "codebase_summary", "planned_documents", "skipped_existing"},
		},
	}
}

// Planner decides what documentation a codebase needs.
type Planner struct {
	client llm.Client
}

func New(client llm.Client) *Planner {
	return &Planner{
		client: llm.Wrap(client, llm.Retry(llm.MaxRetries, llm.GenerationRetryDelays)),
	}
}

// CreatePlan asks the model for a documentation plan. It never returns
// a nil plan: failures are reported inside the result so callers can
// fall back without nil checks.
func (p *Planner) CreatePlan(ctx context.Context, analysis *analyzer.Context, existing []ExistingDoc, expandMode bool) PlannerResult {
	prompt := buildPlanPrompt(analysis, existing, expandMode)

	raw, err := p.client.Invoke(ctx, llm.Request{
		Model:     llm.ModelOpus,
		MaxTokens: llm.MaxTokensGeneration,
		Prompt:    prompt,
		Tool:      planToolSchema(),
	})
	if errors.Is(err, llm.ErrNoToolUse) {
		log.Printf("planner: model returned no tool call")
		return PlannerResult{
			Success: true,
			Plan:    &DocumentationPlan{Summary: "Planning failed - no valid response from Claude"},
		}
	}
	if err != nil {
		return PlannerResult{
			Success: false,
			Plan:    &DocumentationPlan{Summary: "Planning failed: " + err.Error()},
			Error:   err.Error(),
		}
	}

	var plan DocumentationPlan
	if err := jsonutil.UnmarshalRaw(raw, &plan); err != nil {
		log.Printf("planner: parse failed: %v", err)
		return PlannerResult{
			Success: true,
			Plan:    &DocumentationPlan{Summary: "Planning failed - no valid response from Claude"},
		}
	}

	for i := range plan.PlannedDocuments {
		applyDefaults(&plan.PlannedDocuments[i])
	}
	sort.SliceStable(plan.PlannedDocuments, func(i, j int) bool {
		return plan.PlannedDocuments[i].Priority < plan.PlannedDocuments[j].Priority
	})

	return PlannerResult{Success: true, Plan: &plan}
}

// applyDefaults fills the holes a sloppy tool call can leave.
func applyDefaults(doc *PlannedDocument) {
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if !validDocTypes[doc.DocType] {
		doc.DocType = "overview"
	}
	if doc.Priority < 1 || doc.Priority > 5 {
		doc.Priority = 3
	}
	if doc.Folder == "" {
		doc.Folder = "blueprints"
	}
}
