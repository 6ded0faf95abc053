package generator

import (
	"fmt"
	"strings"

	"docsmith/internal/analyzer"
	"docsmith/internal/validator"
)

const (
	maxCustomFiles      = 15
	maxUnfocusedFiles   = 10
	maxCustomFileLength = 5000
)

var customDocTypeInstructions = map[string]string{
	"how-to":    "Write a how-to document: a goal-oriented sequence of concrete steps with the exact commands or code for each one.",
	"wiki":      "Write a wiki-style reference page: dense, cross-linked, organized by topic, suitable for repeated lookup by the team.",
	"overview":  "Write an overview: orient the reader to what this is, what it does, and how the pieces relate, without drowning them in detail.",
	"technical": "Write a deep technical document: exact behavior, data flow, edge cases, and the specific files and symbols involved.",
	"guide":     "Write a guide that walks the reader from zero to a working result, explaining the why alongside each step.",
}

var formatStyleInstructions = map[string]string{
	"technical":    "Structure with clear headings, code blocks for all code and commands, and tables where they aid scanning.",
	"presentation": "Structure as a sequence of short sections with punchy headings and bulleted takeaways, as if each section were a slide.",
	"essay":        "Write in flowing prose with minimal headings; build an argument rather than a list.",
	"email":        "Write as a sendable email: brief greeting, the substance in short paragraphs, clear ask or summary at the end.",
	"how-to-guide": "Use numbered steps throughout, one action per step, with the expected outcome stated after each.",
}

// buildCustomPrompt assembles the prompt for a user-requested document:
// the ask itself, style directives, project context, and the source
// files the model is allowed to draw from.
func buildCustomPrompt(req CustomRequest, codebase *analyzer.Context) string {
	var b strings.Builder

	b.WriteString("You are writing a single document about this codebase at a user's request.\n\n")
	fmt.Fprintf(&b, "## User Request\n%s\n\n", req.Request)
	if strings.TrimSpace(req.Title) != "" {
		fmt.Fprintf(&b, "The user wants the document titled: %s\n\n", req.Title)
	}

	b.WriteString("## Document Type\n")
	if inst, ok := customDocTypeInstructions[req.DocType]; ok {
		b.WriteString(inst)
	} else {
		b.WriteString("Write clear documentation.")
	}
	b.WriteString("\n\n## Format\n")
	if inst, ok := formatStyleInstructions[req.FormatStyle]; ok {
		b.WriteString(inst)
	} else {
		b.WriteString("Use standard markdown formatting.")
	}
	b.WriteString("\n\n## Audience\n")
	if inst, ok := audienceInstructions[req.Audience]; ok {
		b.WriteString(inst)
	} else {
		b.WriteString("Write for a general technical audience.")
	}
	b.WriteString("\n\n")

	b.WriteString("## Project Context\n")
	writeStackSummary(&b, codebase.CombinedStack)
	if len(codebase.DetectedPatterns) > 0 {
		fmt.Fprintf(&b, "- Architecture: %s\n", strings.Join(codebase.DetectedPatterns, ", "))
	}
	b.WriteString("\n")

	files, focusMissed := pickCustomFiles(codebase, req.FocusPaths)
	if focusMissed {
		b.WriteString("WARNING: none of the requested focus paths matched analyzed files; using the highest-value files instead. Say so if the document cannot fully answer the request.\n\n")
	}

	b.WriteString("## Files Provided\n```\n")
	for _, f := range files {
		b.WriteString(f.Path)
		b.WriteString("\n")
	}
	b.WriteString("```\n\n## Source Files\n")
	for _, f := range files {
		content := f.Content
		truncated := false
		if len(content) > maxCustomFileLength {
			content = content[:maxCustomFileLength]
			truncated = true
		}
		fmt.Fprintf(&b, "### `%s`\n```\n%s\n```\n", f.Path, content)
		if truncated {
			fmt.Fprintf(&b, "*(file truncated at %d characters)*\n", maxCustomFileLength)
		}
		b.WriteString("\n")
	}

	b.WriteString(`## Accuracy Rules
1. Only describe endpoints that appear in the source files above.
2. Only name data models that appear in the source files above.
3. Only mention technologies present in the project context.
4. If the provided files do not cover something the request asks about, say so explicitly instead of guessing.
5. Quote file paths exactly as listed.

Use the save_document tool to return the document content and a suggested title.
`)
	return b.String()
}

// pickCustomFiles filters key files by focus paths. When no focus path
// matches anything it falls back to the leading files and reports the
// miss so the prompt can carry a warning.
func pickCustomFiles(codebase *analyzer.Context, focusPaths []string) ([]analyzer.FileContent, bool) {
	var files []analyzer.FileContent
	focusMissed := false

	if len(focusPaths) > 0 {
		for _, f := range codebase.AllKeyFiles {
			if matchesAnyFocus(f.Path, focusPaths) {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			focusMissed = true
		}
	}
	if len(files) == 0 {
		limit := maxUnfocusedFiles
		if len(codebase.AllKeyFiles) < limit {
			limit = len(codebase.AllKeyFiles)
		}
		files = append(files, codebase.AllKeyFiles[:limit]...)
	}
	if len(files) > maxCustomFiles {
		files = files[:maxCustomFiles]
	}
	return files, focusMissed
}

// buildCorrectionPrompt confronts the model with its own unverified
// claims and the ground truth to rewrite against.
func buildCorrectionPrompt(content string, res validator.Result, v *validator.Validator) string {
	var b strings.Builder

	b.WriteString("The document below makes claims that do not match the analyzed codebase. Rewrite it, removing or correcting every flagged claim. Keep everything that was accurate.\n\n")

	b.WriteString("## Flagged Claims\n")
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", w.ClaimType, w.Severity, w.Message)
	}
	b.WriteString("\n## Ground Truth\n")
	writeKnownList(&b, "Endpoints", v.KnownEndpoints())
	writeKnownList(&b, "Data models", v.KnownModels())
	writeKnownList(&b, "Technologies", v.KnownTechnologies())

	b.WriteString("\n## Document To Correct\n")
	b.WriteString(content)
	b.WriteString("\n\nUse the save_document tool to return the corrected document.\n")
	return b.String()
}

func writeKnownList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(b, "- %s: none detected\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}
