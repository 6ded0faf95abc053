// Package docutil holds the small path and title heuristics used when
// importing existing markdown and exporting generated docs.
package docutil

import (
	"path"
	"regexp"
	"strings"
)

// ExtractTitle pulls the first H1 from markdown content, falling back
// to a title-cased version of the filename.
func ExtractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	name := strings.TrimSuffix(path.Base(filename), ".md")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

var planNameHints = []string{"plan", "roadmap", "proposal", "spec"}
var completionNameHints = []string{"completion", "completed", "shipped", "postmortem"}

// MapPathToFolder decides which logical folder an imported file lands
// in. An empty result means the product root, which is where
// changelogs live.
func MapPathToFolder(filePath string) string {
	lower := strings.ToLower(filePath)
	base := path.Base(lower)

	for _, hint := range []string{"changelog", "changes", "history"} {
		if strings.Contains(base, hint) {
			return ""
		}
	}

	switch {
	case containsAny(lower, "/blueprints/", "/overview/", "/architecture/"):
		return "blueprints"
	case containsAny(lower, "/plans/", "/roadmap/", "/planning/"):
		return "plans"
	case containsAny(lower, "/executing/", "/in-progress/", "/wip/"):
		return "executing"
	case containsAny(lower, "/completions/", "/completed/", "/done/", "/finished/"):
		if date := dateRe.FindString(lower); date != "" {
			return "completions/" + date
		}
		return "completions"
	case containsAny(lower, "/archive/", "/old/", "/deprecated/"):
		return "archive"
	}

	for _, hint := range planNameHints {
		if strings.Contains(base, hint) {
			return "plans"
		}
	}
	for _, hint := range completionNameHints {
		if strings.Contains(base, hint) {
			return "completions"
		}
	}

	if strings.HasPrefix(lower, "docs/") {
		return "blueprints"
	}
	return ""
}

// InferDocType guesses a document type from its filename.
func InferDocType(filename string) string {
	lower := strings.ToLower(path.Base(filename))
	switch {
	case containsAny(lower, "changelog", "changes", "history"):
		return "changelog"
	case strings.Contains(lower, "architecture"):
		return "architecture"
	case containsAny(lower, "plan", "roadmap", "proposal"):
		return "plan"
	case strings.Contains(lower, "readme"):
		return "blueprint"
	case strings.Contains(lower, "api"):
		return "architecture"
	case containsAny(lower, "guide", "tutorial"):
		return "note"
	}
	return "blueprint"
}

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a title into a filesystem-safe slug.
func Slugify(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// GitHubPath maps a document to its path in a docs/ tree. Changelogs
// always land at docs/changelog.md regardless of folder.
func GitHubPath(title, docType, folder string) string {
	if docType == "changelog" {
		return "docs/changelog.md"
	}
	slug := Slugify(title)
	if folder == "" {
		return "docs/" + slug + ".md"
	}
	return "docs/" + folder + "/" + slug + ".md"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
