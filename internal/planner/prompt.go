package planner

import (
	"fmt"
	"strings"

	"docsmith/internal/analyzer"
)

const (
	maxModelNames    = 10
	maxEndpointNames = 8
)

// buildPlanPrompt assembles the planning prompt: codebase stats, tech
// stack, detected shapes, full key file contents, and what already
// exists so the model does not plan duplicates.
func buildPlanPrompt(a *analyzer.Context, existing []ExistingDoc, expandMode bool) string {
	var b strings.Builder

	b.WriteString("You are a technical writer planning the documentation set for a codebase.\n\n")
	if expandMode {
		b.WriteString("Expand mode: documentation already exists for this product. ")
		b.WriteString("Plan only documents that cover gaps; list everything already covered in skipped_existing.\n\n")
	}

	fmt.Fprintf(&b, "## Codebase Statistics\n- Repositories: %d\n- Total files: %d\n- Analyzed tokens: ~%d\n\n",
		len(a.Repositories), a.TotalFiles, a.TotalTokens)

	b.WriteString("## Tech Stack\n")
	writeStackLine(&b, "Languages", a.CombinedStack.Languages)
	writeStackLine(&b, "Frameworks", a.CombinedStack.Frameworks)
	writeStackLine(&b, "Databases", a.CombinedStack.Databases)
	writeStackLine(&b, "Infrastructure", a.CombinedStack.Infrastructure)
	writeStackLine(&b, "Package managers", a.CombinedStack.PackageManagers)
	b.WriteString("\n")

	if len(a.DetectedPatterns) > 0 {
		b.WriteString("## Detected Patterns\n")
		for _, p := range a.DetectedPatterns {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if len(a.AllModels) > 0 {
		fmt.Fprintf(&b, "## Data Models (%d found)\n", len(a.AllModels))
		for i, m := range a.AllModels {
			if i >= maxModelNames {
				fmt.Fprintf(&b, "- ...and %d more\n", len(a.AllModels)-maxModelNames)
				break
			}
			fmt.Fprintf(&b, "- %s\n", m.Name)
		}
		b.WriteString("\n")
	}

	if len(a.AllEndpoints) > 0 {
		fmt.Fprintf(&b, "## API Endpoints (%d found)\n", len(a.AllEndpoints))
		for i, e := range a.AllEndpoints {
			if i >= maxEndpointNames {
				fmt.Fprintf(&b, "- ...and %d more\n", len(a.AllEndpoints)-maxEndpointNames)
				break
			}
			fmt.Fprintf(&b, "- %s %s\n", e.Method, e.Path)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Repositories\n")
	for _, r := range a.Repositories {
		fmt.Fprintf(&b, "### %s (branch %s)\n- Files: %d\n- Key files analyzed: %d\n",
			r.FullName, r.Branch, r.TotalFiles, len(r.KeyFiles))
		if len(r.Errors) > 0 {
			fmt.Fprintf(&b, "- Errors: %s\n", strings.Join(r.Errors, "; "))
		}
	}
	b.WriteString("\n## Key Files\n")
	for _, f := range a.AllKeyFiles {
		fmt.Fprintf(&b, "### `%s` (Tier %d, ~%d tokens)\n```\n%s\n```\n\n", f.Path, f.Tier, f.TokenEstimate, f.Content)
	}

	b.WriteString("## Existing Documentation\n")
	if len(existing) == 0 {
		b.WriteString("*No existing documentation found.*\n")
	} else {
		for _, d := range existing {
			folder := d.Folder
			if folder == "" {
				folder = "root"
			}
			fmt.Fprintf(&b, "- %s (%s, in %s)\n", d.Title, d.Type, folder)
		}
	}

	b.WriteString(`
## Task
Plan the documentation this codebase needs. For each document decide a
title, a doc_type (overview, architecture, guide, reference, concept),
its purpose, the key topics to cover, the source files to draw from, a
priority from 1 (write first) to 5, and the folder it belongs in.
Do not plan documents that duplicate existing ones; record those titles
in skipped_existing instead.

Use the save_documentation_plan tool to return the plan.
`)
	return b.String()
}

func writeStackLine(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}
