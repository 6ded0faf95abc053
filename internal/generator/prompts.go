package generator

import (
	"fmt"
	"strings"

	"docsmith/internal/analyzer"
	"docsmith/internal/planner"
)

// audienceInstructions is shared by the planned and custom paths.
var audienceInstructions = map[string]string{
	"internal-technical": "Write for engineers on the team. Assume fluency with the stack; use precise technical vocabulary, reference concrete files and symbols, and skip beginner explanations.",
	"internal-non-technical": "Write for teammates outside engineering (product, support, operations). Explain what the system does and why it matters in plain language; avoid code-level detail and define any unavoidable jargon.",
	"external-technical": "Write for developers outside the organization integrating with this system. Be precise and complete, but never reference internal-only tooling, file paths, or process.",
	"external-non-technical": "Write for customers and evaluators. Focus on capabilities and outcomes in approachable language; no implementation detail.",
}

var docTypeInstructions = map[string]string{
	"overview":     "Write a high-level overview: what the system is, who it serves, its main capabilities, and how the pieces fit together. Favor orientation over depth.",
	"architecture": "Describe the architecture: components, their responsibilities, data flow between them, and the reasoning visible in the code. Include a component breakdown and call out integration points.",
	"guide":        "Write a practical step-by-step guide. Each step should be actionable, in order, with the commands or code the reader needs at each point.",
	"reference":    "Write reference documentation: exhaustive, precisely structured, organized for lookup rather than reading front to back. Tables and definition lists are appropriate.",
	"concept":      "Explain the underlying concept: the problem it solves, the mental model, and how it manifests in this codebase. Prefer narrative explanation over enumeration.",
}

// buildGenerationPrompt assembles one planned document's prompt.
func buildGenerationPrompt(doc planner.PlannedDocument, codebase *analyzer.Context, relevant []analyzer.FileContent) string {
	var b strings.Builder

	b.WriteString("You are writing one document in a larger documentation set for this codebase.\n\n")

	b.WriteString("## Document Spec\n")
	fmt.Fprintf(&b, "- Title: %s\n- Type: %s\n", doc.Title, doc.DocType)
	if doc.Section != "" {
		fmt.Fprintf(&b, "- Section: %s\n", doc.Section)
	}
	if doc.Subsection != "" {
		fmt.Fprintf(&b, "- Subsection: %s\n", doc.Subsection)
	}
	fmt.Fprintf(&b, "- Purpose: %s\n\n", doc.Purpose)

	b.WriteString("## Audience\n")
	if doc.Section == "conceptual" {
		b.WriteString(audienceInstructions["internal-non-technical"])
	} else {
		b.WriteString(audienceInstructions["internal-technical"])
	}
	b.WriteString("\n\n")

	if len(doc.KeyTopics) > 0 {
		b.WriteString("## Key Topics\n")
		for _, topic := range doc.KeyTopics {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Tech Stack\n")
	writeStackSummary(&b, codebase.CombinedStack)
	b.WriteString("\n")

	b.WriteString("## Source Files\n")
	for _, f := range relevant {
		fmt.Fprintf(&b, "### `%s`\n```\n%s\n```\n\n", f.Path, f.Content)
	}

	b.WriteString("## Writing Instructions\n")
	if inst, ok := docTypeInstructions[doc.DocType]; ok {
		b.WriteString(inst)
	} else {
		b.WriteString(docTypeInstructions["overview"])
	}
	b.WriteString(`

## Requirements
- Format: well-structured markdown with a single top-level heading.
- Length: as long as the material warrants, no padding.
- Accuracy: only describe endpoints, models, and technologies that appear in the source files above. Never invent names.

Use the save_document tool to return the document.
`)
	return b.String()
}

func writeStackSummary(b *strings.Builder, stack analyzer.TechStack) {
	write := func(label string, values []string) {
		if len(values) > 0 {
			fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
		}
	}
	write("Languages", stack.Languages)
	write("Frameworks", stack.Frameworks)
	write("Databases", stack.Databases)
	write("Infrastructure", stack.Infrastructure)
}
