package refresher

import (
	"regexp"
	"strings"

	"docsmith/internal/analyzer"
	"docsmith/internal/store"
)

const sourceExts = `py|ts|tsx|js|jsx|json|md|toml|yaml|yml`

// Paths the document itself mentions.
var (
	fencedPathRe = regexp.MustCompile("```\\w*\\s*\\n?\\s*#?\\s*([\\w/\\-\\.]+\\.(?:" + sourceExts + "))")
	inlinePathRe = regexp.MustCompile("`([\\w/\\-\\.]+\\.(?:" + sourceExts + "))`")
	barePathRe   = regexp.MustCompile(`\b((?:backend|frontend|src|app|lib)/[\w/\-\.]+)\b`)
)

// Files a document type usually describes, when it mentions none.
var docTypePathRes = map[string][]*regexp.Regexp{
	"architecture": {
		regexp.MustCompile(`(?:^|/)(?:main|app|server)\.py$`),
		regexp.MustCompile(`(?:^|/)index\.tsx?$`),
		regexp.MustCompile(`(?:router|routes|api)`),
	},
	"blueprint": {
		regexp.MustCompile(`(?:models|schemas|types|config)`),
	},
}

// relevantFiles picks which analyzed files a refresh prompt should
// carry: files the document mentions by path, then type-typical files,
// then tier-1 files if the budget is still mostly unused.
func relevantFiles(doc *store.Document, codebase *analyzer.Context, budget int) []analyzer.FileContent {
	mentioned := mentionedPaths(doc.Content)

	var selected []analyzer.FileContent
	used := 0
	taken := map[string]bool{}
	add := func(f analyzer.FileContent) {
		if taken[f.Path] || used+f.TokenEstimate > budget {
			return
		}
		taken[f.Path] = true
		selected = append(selected, f)
		used += f.TokenEstimate
	}

	for _, f := range codebase.AllKeyFiles {
		for m := range mentioned {
			if f.Path == m || strings.HasSuffix(f.Path, m) || strings.Contains(f.Path, m) {
				add(f)
				break
			}
		}
	}

	if res, ok := docTypePathRes[doc.Type]; ok {
		for _, f := range codebase.AllKeyFiles {
			for _, re := range res {
				if re.MatchString(f.Path) {
					add(f)
					break
				}
			}
		}
	}

	// Top up with tier-1 context while most of the budget is unspent.
	// Documents that matched nothing stay empty so the caller can skip
	// the LLM call entirely.
	if len(selected) > 0 && used < budget/2 {
		for _, f := range codebase.AllKeyFiles {
			if f.Tier == 1 {
				add(f)
			}
		}
	}
	return selected
}

func mentionedPaths(content string) map[string]bool {
	paths := map[string]bool{}
	for _, re := range []*regexp.Regexp{fencedPathRe, inlinePathRe, barePathRe} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			p := strings.TrimSpace(m[1])
			if p != "" {
				paths[p] = true
			}
		}
	}
	return paths
}
