package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsmith/internal/analyzer"
	"docsmith/internal/generator"
	"docsmith/internal/llm"
	"docsmith/internal/planner"
	"docsmith/internal/source"
	"docsmith/internal/store"
)

type stubAnalyzer struct {
	codebase *analyzer.Context
	err      error
	calls    int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, repos []source.RepoRef) (*analyzer.Context, error) {
	s.calls++
	return s.codebase, s.err
}

type stubPlanner struct {
	result planner.PlannerResult
	calls  int
}

func (s *stubPlanner) CreatePlan(ctx context.Context, codebase *analyzer.Context, existing []planner.ExistingDoc, expandMode bool) planner.PlannerResult {
	s.calls++
	return s.result
}

type stubGenerator struct {
	batch generator.BatchResult
	calls int
}

func (s *stubGenerator) GenerateBatch(ctx context.Context, plan *planner.DocumentationPlan, codebase *analyzer.Context, productID string, onProgress generator.ProgressFunc) generator.BatchResult {
	s.calls++
	return s.batch
}

type fakeFetcher struct {
	trees   map[string]*source.Tree
	files   map[string]string
	treeErr error
}

func (f *fakeFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*source.Tree, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	tree, ok := f.trees[owner+"/"+repo]
	if !ok {
		return nil, source.ErrNotFound
	}
	return tree, nil
}

func (f *fakeFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range paths {
		if c, ok := f.files[owner+"/"+repo+":"+p]; ok && len(c) <= maxSize {
			out[p] = c
		}
	}
	return out, nil
}

func (f *fakeFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	if c, ok := f.files[owner+"/"+repo+":"+path]; ok {
		return c, nil
	}
	return "", source.ErrNotFound
}

func sampleCodebase() *analyzer.Context {
	return &analyzer.Context{
		Repositories: []analyzer.RepoAnalysis{
			{FullName: "acme/api", Branch: "main", TotalFiles: 12},
		},
		AllKeyFiles: []analyzer.FileContent{
			{Path: "README.md", Content: "# acme", Tier: 1, TokenEstimate: 2},
		},
		DetectedPatterns: []string{"REST API"},
		TotalFiles:       12,
		TotalTokens:      2,
	}
}

func samplePlan() planner.PlannerResult {
	return planner.PlannerResult{
		Success: true,
		Plan: &planner.DocumentationPlan{
			PlannedDocuments: []planner.PlannedDocument{
				{Title: "Overview", DocType: "overview", Priority: 1, Folder: "blueprints"},
			},
		},
	}
}

func newTestOrchestrator(docs *store.MemoryStore, fetcher source.Fetcher, a *stubAnalyzer, p *stubPlanner, g *stubGenerator) *Orchestrator {
	fake := llm.NewFakeClient(map[string]json.RawMessage{
		"save_document": json.RawMessage(`{"content":"# Project Overview\n\nA product."}`),
	})
	return &Orchestrator{
		Analyzer:     a,
		Planner:      p,
		Generator:    g,
		Docs:         docs,
		Fingerprints: docs,
		Changelog:    NewChangelogAgent(docs),
		Blueprints:   NewBlueprintAgent(fake, docs, fetcher),
		Plans:        NewPlansAgent(docs),
		Importer:     NewImporter(docs, fetcher),
	}
}

func TestRunHappyPath(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	a := &stubAnalyzer{codebase: sampleCodebase()}
	p := &stubPlanner{result: samplePlan()}
	g := &stubGenerator{batch: generator.BatchResult{TotalGenerated: 3}}

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	var stages []string
	o.Progress = func(stage, message string) { stages = append(stages, stage) }

	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})

	assert.Equal(t, "v2", res.Flow)
	assert.False(t, res.SkippedUnchanged)
	assert.Equal(t, 3, res.Generated)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, g.calls)
	assert.NotEmpty(t, res.Fingerprint)

	stored, err := docs.GetFingerprint(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, res.Fingerprint, stored)

	changelog, err := docs.FindChangelog(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Contains(t, changelog.Content, "Generated 3 documentation documents")

	assert.Equal(t, []string{
		StageImporting, StageAnalyzing, StagePlanning, StageGenerating,
		StageChangelog, StagePlansCleanup, StageComplete,
	}, stages)
}

func TestRunFallsBackWhenAnalysisFails(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{
		trees: map[string]*source.Tree{
			"acme/api": {Files: []string{"README.md", "main.py"}},
		},
		files: map[string]string{
			"acme/api:README.md": "# Acme\n\nAn API.",
		},
	}
	a := &stubAnalyzer{err: errors.New("boom")}
	p := &stubPlanner{result: samplePlan()}
	g := &stubGenerator{}

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})

	assert.Equal(t, "legacy", res.Flow)
	assert.Equal(t, 0, p.calls, "planner must not run when analysis failed")
	assert.Equal(t, 0, g.calls)
	assert.NotEmpty(t, res.Errors)

	all, err := docs.ListByProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	titles := map[string]bool{}
	for _, d := range all {
		titles[d.Title] = true
	}
	assert.True(t, titles["Project Overview"], "legacy flow writes a baseline overview")
	assert.True(t, titles["Changelog"])

	// No fingerprint is saved for a legacy run, so the next run retries
	// the full flow.
	fp, err := docs.GetFingerprint(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Empty(t, fp)
}

func TestRunFallsBackWhenPlanningFails(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	a := &stubAnalyzer{codebase: sampleCodebase()}
	p := &stubPlanner{result: planner.PlannerResult{Success: false, Error: "no response"}}
	g := &stubGenerator{}

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})

	assert.Equal(t, "legacy", res.Flow)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 0, g.calls, "generator must not run without a plan")
}

func TestRunSkipsGenerationWhenUnchanged(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	codebase := sampleCodebase()
	a := &stubAnalyzer{codebase: codebase}
	p := &stubPlanner{result: samplePlan()}
	g := &stubGenerator{batch: generator.BatchResult{TotalGenerated: 5}}

	require.NoError(t, docs.SetFingerprint(context.Background(), "prod-1", analyzer.Fingerprint(codebase)))

	// A stale plan sitting in the plans folder still gets tidied.
	require.NoError(t, docs.Put(context.Background(), &store.Document{
		ID:         "plan-1",
		ProductID:  "prod-1",
		Title:      "Search Revamp Plan",
		Content:    "The revamp shipped last sprint.",
		Type:       "plan",
		FolderPath: "plans",
	}))

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})

	assert.Equal(t, "v2", res.Flow)
	assert.True(t, res.SkippedUnchanged)
	assert.Zero(t, res.Generated)
	assert.Equal(t, 0, p.calls, "planner must not run on an unchanged codebase")
	assert.Equal(t, 0, g.calls)
	assert.Equal(t, 1, res.PlansMoved)

	_, err := docs.FindChangelog(context.Background(), "prod-1")
	assert.NoError(t, err, "housekeeping still ensures the changelog")

	moved, err := docs.Get(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "completions", moved.FolderPath)
}

func TestRunRecordsGenerationFailures(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	a := &stubAnalyzer{codebase: sampleCodebase()}
	p := &stubPlanner{result: samplePlan()}
	g := &stubGenerator{batch: generator.BatchResult{TotalGenerated: 1, Failed: []string{"Deployment Guide"}}}

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})

	assert.Equal(t, "v2", res.Flow)
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, []string{"Deployment Guide"}, res.Failed)
}

func TestRunSurvivesPanickingProgressCallback(t *testing.T) {
	docs := store.NewMemoryStore()
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	a := &stubAnalyzer{codebase: sampleCodebase()}
	p := &stubPlanner{result: samplePlan()}
	g := &stubGenerator{batch: generator.BatchResult{TotalGenerated: 1}}

	o := newTestOrchestrator(docs, fetcher, a, p, g)
	o.Progress = func(stage, message string) { panic("observer bug") }

	res := o.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})
	assert.Equal(t, 1, res.Generated)
}

func TestBlueprintAgentComplexCodebase(t *testing.T) {
	files := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		files = append(files, fmt.Sprintf("src/module%d.py", i))
	}
	files = append(files, "README.md")
	fetcher := &fakeFetcher{
		trees: map[string]*source.Tree{"acme/api": {Files: files}},
		files: map[string]string{"acme/api:README.md": "# Acme"},
	}
	docs := store.NewMemoryStore()
	fake := llm.NewFakeClient(map[string]json.RawMessage{
		"save_document": json.RawMessage(`{"content":"# Doc\n\nBody."}`),
	})

	agent := NewBlueprintAgent(fake, docs, fetcher)
	created, err := agent.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})
	require.NoError(t, err)
	assert.Equal(t, 2, created, "complex codebase gets overview plus architecture")

	all, err := docs.ListByProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	var titles []string
	for _, d := range all {
		titles = append(titles, d.Title)
	}
	assert.Contains(t, titles, "Project Overview")
	assert.Contains(t, titles, "Architecture")
}

func TestBlueprintAgentSkipsExistingOverview(t *testing.T) {
	fetcher := &fakeFetcher{trees: map[string]*source.Tree{
		"acme/api": {Files: []string{"main.py"}},
	}}
	docs := store.NewMemoryStore()
	require.NoError(t, docs.Put(context.Background(), &store.Document{
		ID:        "d1",
		ProductID: "prod-1",
		Title:     "Project Overview",
		Content:   "# Project Overview",
		Type:      "blueprint",
	}))
	fake := llm.NewFakeClient(nil)

	agent := NewBlueprintAgent(fake, docs, fetcher)
	created, err := agent.Run(context.Background(), "prod-1", "Acme", []source.RepoRef{{FullName: "acme/api"}})
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Zero(t, fake.CallCount())
}

func TestBlueprintPromptIncludesSketch(t *testing.T) {
	prompt := buildBlueprintPrompt("Architecture", "architecture", "Acme", []repoSketch{
		{
			FullName:   "acme/api",
			Languages:  []string{"Python"},
			TotalFiles: 42,
			TopDirs:    []string{"app", "tests"},
			KeyFiles:   map[string]string{"README.md": "# Acme"},
		},
		{FullName: "acme/web", ScanError: "clone failed"},
	})

	assert.Contains(t, prompt, "## Repository acme/api")
	assert.Contains(t, prompt, "Languages: Python")
	assert.Contains(t, prompt, "Top-level directories: app, tests")
	assert.Contains(t, prompt, "### `README.md`")
	assert.Contains(t, prompt, "Scan failed: clone failed")
	assert.True(t, strings.Contains(prompt, "save_document"))
}
