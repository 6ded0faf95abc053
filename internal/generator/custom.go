package generator

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsmith/internal/analyzer"
	"docsmith/internal/jobstore"
	"docsmith/internal/llm"
	"docsmith/internal/source"
	"docsmith/internal/store"
	"docsmith/internal/util/jsonutil"
	"docsmith/internal/validator"
)

// maxCorrectionRounds caps the validate-and-regenerate loop. Each round
// is a full LLM call, so this ceiling bounds cost on documents the
// model keeps getting wrong.
const maxCorrectionRounds = 2

const correctionConfidenceFloor = 0.7

type CustomRequest struct {
	ProductID   string
	JobID       string
	Request     string // the user's free-text ask
	Title       string
	DocType     string // how-to, wiki, overview, technical, guide
	FormatStyle string // technical, presentation, essay, email, how-to-guide
	Audience    string
	FocusPaths  []string
}

type CustomResult struct {
	Success        bool
	Content        string
	SuggestedTitle string
	Document       *store.Document
	Error          string
	GenerationTime time.Duration
}

type customSavedDocument struct {
	Content        string `json:"content"`
	SuggestedTitle string `json:"suggested_title"`
}

func customDocumentToolSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "save_document",
		Description: "Save the generated document and a suggested title",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":         map[string]any{"type": "string", "description": "Full markdown content of the document"},
				"suggested_title": map[string]any{"type": "string", "description": "Short descriptive title for this document"},
			},
			"required": []string{"content", "suggested_title"},
		},
	}
}

// CustomGenerator serves one-off user-requested documents with
// cancellation, validation, and bounded correction.
type CustomGenerator struct {
	client   llm.Client
	docs     store.DocumentStore
	jobs     jobstore.Store
	analyzer *analyzer.Analyzer
}

func NewCustom(client llm.Client, docs store.DocumentStore, jobs jobstore.Store, a *analyzer.Analyzer) *CustomGenerator {
	return &CustomGenerator{
		client:   llm.Wrap(client, llm.Retry(llm.MaxRetries, llm.GenerationRetryDelays)),
		docs:     docs,
		jobs:     jobs,
		analyzer: a,
	}
}

// Generate runs the full custom pipeline. The job's cancellation flag
// is re-read before every stage and after each correction round; a
// cancelled job returns immediately and persists nothing.
func (g *CustomGenerator) Generate(ctx context.Context, req CustomRequest, repos []source.RepoRef) CustomResult {
	start := time.Now()
	cancelled := func() CustomResult {
		return CustomResult{Success: false, Error: "Cancelled by user", GenerationTime: time.Since(start)}
	}

	if g.isCancelled(ctx, req.JobID) {
		return cancelled()
	}
	g.progress(ctx, req.JobID, jobstore.StageAnalyzing)
	codebase, err := g.analyzer.Analyze(ctx, repos)
	if err != nil {
		g.fail(ctx, req.JobID, err)
		return CustomResult{Success: false, Error: err.Error(), GenerationTime: time.Since(start)}
	}

	if g.isCancelled(ctx, req.JobID) {
		return cancelled()
	}
	g.progress(ctx, req.JobID, jobstore.StagePlanning)
	reorderByFocus(codebase, req.FocusPaths)
	prompt := buildCustomPrompt(req, codebase)

	if g.isCancelled(ctx, req.JobID) {
		return cancelled()
	}
	g.progress(ctx, req.JobID, jobstore.StageGenerating)
	content, suggested, err := g.invoke(ctx, req, prompt)
	if err != nil {
		g.fail(ctx, req.JobID, err)
		return CustomResult{Success: false, Error: err.Error(), GenerationTime: time.Since(start)}
	}

	// Correction loop: regenerate while the document fails validation,
	// up to the hard ceiling. The final content ships either way;
	// validation detail stays internal.
	v := validator.New(codebase)
	res := v.Validate(content)
	for round := 0; round < maxCorrectionRounds && needsCorrection(res); round++ {
		if g.isCancelled(ctx, req.JobID) {
			return cancelled()
		}
		log.Printf("generator: custom doc confidence %.2f with %d high warnings, correction round %d",
			res.ConfidenceScore, validator.HighSeverityCount(res), round+1)

		corrected, correctedTitle, err := g.invoke(ctx, req, buildCorrectionPrompt(content, res, v))
		if err != nil {
			break
		}
		content = corrected
		if correctedTitle != "" {
			suggested = correctedTitle
		}
		res = v.Validate(content)
	}

	if g.isCancelled(ctx, req.JobID) {
		return cancelled()
	}
	g.progress(ctx, req.JobID, jobstore.StageFinalizing)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(suggested)
	}
	if title == "" {
		title = "Untitled Document"
	}

	record := &store.Document{
		ID:          uuid.NewString(),
		ProductID:   req.ProductID,
		Title:       title,
		Content:     content,
		Type:        req.DocType,
		FolderPath:  "blueprints",
		IsGenerated: true,
	}
	if g.docs != nil {
		if err := g.docs.Put(ctx, record); err != nil {
			g.fail(ctx, req.JobID, err)
			return CustomResult{Success: false, Error: err.Error(), GenerationTime: time.Since(start)}
		}
	}
	if g.jobs != nil && req.JobID != "" {
		if err := g.jobs.SetCompleted(ctx, req.JobID, content, title); err != nil {
			log.Printf("generator: complete job %s: %v", req.JobID, err)
		}
	}

	return CustomResult{
		Success:        true,
		Content:        content,
		SuggestedTitle: title,
		Document:       record,
		GenerationTime: time.Since(start),
	}
}

func needsCorrection(res validator.Result) bool {
	return res.ConfidenceScore < correctionConfidenceFloor || validator.HighSeverityCount(res) >= 1
}

func (g *CustomGenerator) invoke(ctx context.Context, req CustomRequest, prompt string) (content, suggested string, err error) {
	raw, err := g.client.Invoke(ctx, llm.Request{
		Model:     llm.SelectCustomModel(req.DocType),
		MaxTokens: llm.MaxTokensGeneration,
		Prompt:    prompt,
		Tool:      customDocumentToolSchema(),
	})
	if err != nil {
		if llm.IsPermanent(err) {
			return "Content generation failed.", "Untitled Document", nil
		}
		return "", "", err
	}

	var saved customSavedDocument
	if perr := jsonutil.UnmarshalRaw(raw, &saved); perr != nil || strings.TrimSpace(saved.Content) == "" {
		return "Content generation failed.", "Untitled Document", nil
	}
	return saved.Content, saved.SuggestedTitle, nil
}

func (g *CustomGenerator) isCancelled(ctx context.Context, jobID string) bool {
	return g.jobs != nil && jobID != "" && g.jobs.IsCancelled(ctx, jobID)
}

func (g *CustomGenerator) progress(ctx context.Context, jobID, stage string) {
	if g.jobs == nil || jobID == "" {
		return
	}
	if err := g.jobs.UpdateProgress(ctx, jobID, stage); err != nil {
		log.Printf("generator: update job %s: %v", jobID, err)
	}
}

func (g *CustomGenerator) fail(ctx context.Context, jobID string, cause error) {
	if g.jobs == nil || jobID == "" {
		return
	}
	if err := g.jobs.SetFailed(ctx, jobID, cause); err != nil {
		log.Printf("generator: fail job %s: %v", jobID, err)
	}
}

// reorderByFocus moves key files matching any focus path to the front,
// preserving relative order within both groups.
func reorderByFocus(codebase *analyzer.Context, focusPaths []string) {
	if len(focusPaths) == 0 {
		return
	}
	var focused, rest []analyzer.FileContent
	for _, f := range codebase.AllKeyFiles {
		if matchesAnyFocus(f.Path, focusPaths) {
			focused = append(focused, f)
		} else {
			rest = append(rest, f)
		}
	}
	codebase.AllKeyFiles = append(focused, rest...)
}

func matchesAnyFocus(path string, focusPaths []string) bool {
	for _, fp := range focusPaths {
		if fp != "" && strings.Contains(path, fp) {
			return true
		}
	}
	return false
}
