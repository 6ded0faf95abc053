package docutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "My Doc", ExtractTitle("intro\n# My Doc\nbody", "x.md"))
	assert.Equal(t, "Getting Started", ExtractTitle("no heading here", "getting-started.md"))
	assert.Equal(t, "Api Notes", ExtractTitle("", "api_notes.md"))
}

func TestMapPathToFolder(t *testing.T) {
	cases := map[string]string{
		"CHANGELOG.md":                       "",
		"docs/changes.md":                    "",
		"docs/blueprints/auth.md":            "blueprints",
		"docs/architecture/overview.md":      "blueprints",
		"docs/plans/q3.md":                   "plans",
		"docs/roadmap/next.md":               "plans",
		"docs/wip/feature.md":                "executing",
		"docs/completed/2024-03-01/auth.md":  "completions/2024-03-01",
		"docs/completed/auth.md":             "completions",
		"docs/archive/legacy.md":             "archive",
		"docs/migration-plan.md":             "plans",
		"docs/auth-completion-report.md":     "completions",
		"docs/readme-style.md":               "blueprints",
		"notes.md":                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, MapPathToFolder(in), in)
	}
}

func TestInferDocType(t *testing.T) {
	assert.Equal(t, "changelog", InferDocType("CHANGELOG.md"))
	assert.Equal(t, "architecture", InferDocType("architecture.md"))
	assert.Equal(t, "plan", InferDocType("q3-roadmap.md"))
	assert.Equal(t, "blueprint", InferDocType("README.md"))
	assert.Equal(t, "architecture", InferDocType("api.md"))
	assert.Equal(t, "note", InferDocType("user-guide.md"))
	assert.Equal(t, "blueprint", InferDocType("misc.md"))
}

func TestSlugifyAndGitHubPath(t *testing.T) {
	assert.Equal(t, "auth-flow-v2", Slugify("Auth Flow (v2)!"))
	assert.Equal(t, "untitled", Slugify("!!!"))

	assert.Equal(t, "docs/changelog.md", GitHubPath("Whatever", "changelog", "plans"))
	assert.Equal(t, "docs/auth-flow.md", GitHubPath("Auth Flow", "blueprint", ""))
	assert.Equal(t, "docs/plans/q3-goals.md", GitHubPath("Q3 Goals", "plan", "plans"))
}
