package orchestrator

import (
	"context"
	"log"
	"strings"

	"docsmith/internal/store"
)

// Keyword tables for classifying plan documents by their own wording.
// Checked in order: a shipped plan beats an in-progress one even when
// both vocabularies appear.
var (
	completionKeywords = []string{"completed", "done", "finished", "shipped", "released", "implemented"}
	executingKeywords  = []string{"in progress", "currently", "working on", "implementing", "building", "developing"}
	archiveKeywords    = []string{"archived", "deprecated", "obsolete", "superseded", "abandoned", "cancelled"}
)

// PlansAgent tidies the plans folder: documents that read as finished
// move to completions, active ones to executing, dead ones to archive.
type PlansAgent struct {
	docs store.DocumentStore
}

func NewPlansAgent(docs store.DocumentStore) *PlansAgent {
	return &PlansAgent{docs: docs}
}

// Run reclassifies every document currently filed under plans and
// returns how many moved.
func (a *PlansAgent) Run(ctx context.Context, productID string) (int, error) {
	docs, err := a.docs.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, doc := range docs {
		if doc.FolderPath != "plans" {
			continue
		}
		folder := classifyPlan(doc.Title, doc.Content)
		if folder == "plans" {
			continue
		}
		if err := a.docs.UpdateFolder(ctx, doc.ID, folder); err != nil {
			log.Printf("orchestrator: move plan %q: %v", doc.Title, err)
			continue
		}
		moved++
	}
	return moved, nil
}

// classifyPlan inspects content keywords first, then title hints.
func classifyPlan(title, content string) string {
	lower := strings.ToLower(content)
	if containsAnyKeyword(lower, completionKeywords) {
		return "completions"
	}
	if containsAnyKeyword(lower, executingKeywords) {
		return "executing"
	}
	if containsAnyKeyword(lower, archiveKeywords) {
		return "archive"
	}

	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, "completion") || strings.Contains(lowerTitle, "report") {
		return "completions"
	}
	if strings.Contains(lowerTitle, "wip") || strings.Contains(lowerTitle, "draft") {
		return "executing"
	}
	return "plans"
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
