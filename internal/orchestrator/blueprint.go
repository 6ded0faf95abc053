package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"docsmith/internal/llm"
	"docsmith/internal/source"
	"docsmith/internal/store"
	"docsmith/internal/util/jsonutil"
)

const (
	// A codebase this large (or spanning repos) earns a separate
	// architecture document in the legacy flow.
	complexFileThreshold = 50

	blueprintKeyFileLimit = 6
	blueprintFileTruncate = 4000
	blueprintTopLevelScan = 100
)

// repoSketch is the lightweight scan the legacy flow works from when
// the full analyzer is unavailable.
type repoSketch struct {
	FullName   string
	Languages  []string
	TotalFiles int
	TopDirs    []string
	KeyFiles   map[string]string
	ScanError  string
}

// BlueprintAgent is the legacy safety net: it writes a fixed Overview
// (and Architecture for complex codebases) from a minimal repo scan,
// with no planning step to fail.
type BlueprintAgent struct {
	client  llm.Client
	docs    store.DocumentStore
	fetcher source.Fetcher
}

func NewBlueprintAgent(client llm.Client, docs store.DocumentStore, fetcher source.Fetcher) *BlueprintAgent {
	return &BlueprintAgent{
		client:  llm.Wrap(client, llm.Retry(llm.MaxRetries, llm.GenerationRetryDelays)),
		docs:    docs,
		fetcher: fetcher,
	}
}

// Run creates the missing baseline documents. Individual document
// failures are logged and skipped; Run only fails when nothing at all
// could proceed.
func (a *BlueprintAgent) Run(ctx context.Context, productID, productName string, repos []source.RepoRef) (int, error) {
	existing, err := a.docs.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	titles := map[string]bool{}
	for _, d := range existing {
		titles[strings.ToLower(d.Title)] = true
	}

	sketches := a.scan(ctx, repos)
	totalFiles := 0
	for _, s := range sketches {
		totalFiles += s.TotalFiles
	}
	complex := totalFiles > complexFileThreshold || len(repos) > 1

	type spec struct {
		title   string
		docType string
	}
	var wanted []spec
	if !titles["overview"] && !titles["project overview"] {
		wanted = append(wanted, spec{"Project Overview", "blueprint"})
	}
	if complex && !titles["architecture"] {
		wanted = append(wanted, spec{"Architecture", "architecture"})
	}

	created := 0
	for _, w := range wanted {
		content, err := a.generate(ctx, w.title, w.docType, productName, sketches)
		if err != nil {
			log.Printf("orchestrator: blueprint %q failed: %v", w.title, err)
			continue
		}
		doc := &store.Document{
			ID:          uuid.NewString(),
			ProductID:   productID,
			Title:       w.title,
			Content:     content,
			Type:        w.docType,
			FolderPath:  "blueprints",
			IsGenerated: true,
		}
		if err := a.docs.Put(ctx, doc); err != nil {
			log.Printf("orchestrator: save blueprint %q: %v", w.title, err)
			continue
		}
		created++
	}
	return created, nil
}

// scan collects just enough per-repo shape for a blueprint prompt.
func (a *BlueprintAgent) scan(ctx context.Context, repos []source.RepoRef) []repoSketch {
	sketches := make([]repoSketch, 0, len(repos))
	for _, repo := range repos {
		sketch := repoSketch{FullName: repo.FullName, KeyFiles: map[string]string{}}

		tree, err := a.fetcher.GetRepoTree(ctx, repo.Owner(), repo.Name(), repo.Branch())
		if err != nil {
			sketch.ScanError = err.Error()
			sketches = append(sketches, sketch)
			continue
		}
		sketch.TotalFiles = len(tree.Files)
		sketch.Languages = languagesOf(tree.Files)
		sketch.TopDirs = topLevelDirs(tree.Files)

		var keyPaths []string
		for _, f := range tree.Files {
			base := strings.ToLower(path.Base(f))
			if base == "readme.md" || base == "package.json" || base == "pyproject.toml" ||
				base == "go.mod" || base == "cargo.toml" || base == "docker-compose.yml" {
				keyPaths = append(keyPaths, f)
			}
			if len(keyPaths) >= blueprintKeyFileLimit {
				break
			}
		}
		contents, err := a.fetcher.FetchFilesByPaths(ctx, repo.Owner(), repo.Name(), keyPaths, repo.Branch(), blueprintFileTruncate*4)
		if err == nil {
			for p, c := range contents {
				if len(c) > blueprintFileTruncate {
					c = c[:blueprintFileTruncate]
				}
				sketch.KeyFiles[p] = c
			}
		}
		sketches = append(sketches, sketch)
	}
	return sketches
}

func (a *BlueprintAgent) generate(ctx context.Context, title, docType, productName string, sketches []repoSketch) (string, error) {
	raw, err := a.client.Invoke(ctx, llm.Request{
		Model:     llm.ModelSonnet,
		MaxTokens: llm.MaxTokensGeneration,
		Prompt:    buildBlueprintPrompt(title, docType, productName, sketches),
		Tool: llm.ToolSchema{
			Name:        "save_document",
			Description: "Save the generated documentation content",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"content"},
			},
		},
	})
	if err != nil {
		return "", err
	}
	var saved struct {
		Content string `json:"content"`
	}
	if perr := jsonutil.UnmarshalRaw(raw, &saved); perr != nil || strings.TrimSpace(saved.Content) == "" {
		return fmt.Sprintf("# %s\n\nContent generation failed.", title), nil
	}
	return saved.Content, nil
}

func buildBlueprintPrompt(title, docType, productName string, sketches []repoSketch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write the %q document for the product %q.\n\n", title, productName)
	if docType == "architecture" {
		b.WriteString("Describe the system's components, how they relate, and the data flow between them, based only on the repository information below.\n\n")
	} else {
		b.WriteString("Give a high-level overview of what this product is and does, based only on the repository information below.\n\n")
	}

	for _, s := range sketches {
		fmt.Fprintf(&b, "## Repository %s\n", s.FullName)
		if s.ScanError != "" {
			fmt.Fprintf(&b, "- Scan failed: %s\n\n", s.ScanError)
			continue
		}
		fmt.Fprintf(&b, "- Files: %d\n", s.TotalFiles)
		if len(s.Languages) > 0 {
			fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(s.Languages, ", "))
		}
		if len(s.TopDirs) > 0 {
			fmt.Fprintf(&b, "- Top-level directories: %s\n", strings.Join(s.TopDirs, ", "))
		}
		b.WriteString("\n")
		for p, c := range s.KeyFiles {
			fmt.Fprintf(&b, "### `%s`\n```\n%s\n```\n\n", p, c)
		}
	}

	b.WriteString("Use the save_document tool to return the document.\n")
	return b.String()
}

func languagesOf(files []string) []string {
	set := map[string]bool{}
	for _, f := range files {
		switch strings.ToLower(path.Ext(f)) {
		case ".py":
			set["Python"] = true
		case ".ts", ".tsx":
			set["TypeScript"] = true
		case ".js", ".jsx":
			set["JavaScript"] = true
		case ".go":
			set["Go"] = true
		case ".rs":
			set["Rust"] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// topLevelDirs lists the first path segment of the leading files.
func topLevelDirs(files []string) []string {
	set := map[string]bool{}
	for i, f := range files {
		if i >= blueprintTopLevelScan {
			break
		}
		if j := strings.Index(f, "/"); j > 0 {
			set[f[:j]] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
