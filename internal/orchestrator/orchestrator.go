// Package orchestrator coordinates a product's documentation run:
// import what exists, analyze the codebase, plan, generate, then tidy
// the changelog and plans folders. When the rich flow breaks it falls
// back to a minimal legacy pass that always produces something.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"docsmith/internal/analyzer"
	"docsmith/internal/generator"
	"docsmith/internal/planner"
	"docsmith/internal/source"
	"docsmith/internal/store"
)

// Stage names reported through the progress callback.
const (
	StageImporting    = "importing"
	StageAnalyzing    = "analyzing"
	StagePlanning     = "planning"
	StageGenerating   = "generating"
	StageChangelog    = "changelog"
	StagePlansCleanup = "plans-housekeeping"
	StageComplete     = "complete"
	StageScanning     = "scanning" // legacy flow
	StageBlueprints   = "blueprints"
)

// Per-stage ceilings. A stage that overruns its ceiling triggers the
// legacy fallback rather than hanging the whole run.
const (
	DefaultAnalyzeTimeout  = 2 * time.Minute
	DefaultPlanTimeout     = 3 * time.Minute
	DefaultGenerateTimeout = 15 * time.Minute
)

type ProgressFunc func(stage, message string)

type codebaseAnalyzer interface {
	Analyze(ctx context.Context, repos []source.RepoRef) (*analyzer.Context, error)
}

type docPlanner interface {
	CreatePlan(ctx context.Context, codebase *analyzer.Context, existing []planner.ExistingDoc, expandMode bool) planner.PlannerResult
}

type docGenerator interface {
	GenerateBatch(ctx context.Context, plan *planner.DocumentationPlan, codebase *analyzer.Context, productID string, onProgress generator.ProgressFunc) generator.BatchResult
}

type Result struct {
	Flow             string // "v2" or "legacy"
	SkippedUnchanged bool
	Imported         int
	Generated        int
	Failed           []string
	PlansMoved       int
	Fingerprint      string
	Errors           []string
}

type Orchestrator struct {
	Analyzer     codebaseAnalyzer
	Planner      docPlanner
	Generator    docGenerator
	Docs         store.DocumentStore
	Fingerprints store.FingerprintStore
	Changelog    *ChangelogAgent
	Blueprints   *BlueprintAgent
	Plans        *PlansAgent
	Importer     *Importer
	Progress     ProgressFunc

	AnalyzeTimeout  time.Duration
	PlanTimeout     time.Duration
	GenerateTimeout time.Duration
}

func New(a codebaseAnalyzer, p docPlanner, g docGenerator, docs store.DocumentStore, fps store.FingerprintStore, fetcher source.Fetcher, blueprintAgent *BlueprintAgent) *Orchestrator {
	return &Orchestrator{
		Analyzer:     a,
		Planner:      p,
		Generator:    g,
		Docs:         docs,
		Fingerprints: fps,
		Changelog:    NewChangelogAgent(docs),
		Blueprints:   blueprintAgent,
		Plans:        NewPlansAgent(docs),
		Importer:     NewImporter(docs, fetcher),
	}
}

// Run executes the full pipeline for one product.
func (o *Orchestrator) Run(ctx context.Context, productID, productName string, repos []source.RepoRef) Result {
	res := Result{Flow: "v2"}

	o.report(StageImporting, "Importing existing documentation")
	if o.Importer != nil {
		n, err := o.Importer.Import(ctx, productID, repos)
		if err != nil {
			log.Printf("orchestrator: import: %v", err)
			res.Errors = append(res.Errors, err.Error())
		}
		res.Imported = n
	}

	o.report(StageAnalyzing, "Analyzing codebase")
	codebase, err := o.analyzeStage(ctx, repos)
	if err != nil {
		log.Printf("orchestrator: analysis failed, falling back to legacy flow: %v", err)
		res.Errors = append(res.Errors, err.Error())
		return o.runLegacy(ctx, productID, productName, repos, res)
	}
	res.Errors = append(res.Errors, codebase.Errors...)

	res.Fingerprint = analyzer.Fingerprint(codebase)
	stored := ""
	if o.Fingerprints != nil {
		stored, _ = o.Fingerprints.GetFingerprint(ctx, productID)
	}
	if analyzer.ShouldSkipGeneration(stored, res.Fingerprint) {
		log.Printf("orchestrator: codebase unchanged (%s), skipping generation", res.Fingerprint)
		res.SkippedUnchanged = true
		o.housekeeping(ctx, productID, productName, &res)
		o.report(StageComplete, "Codebase unchanged, no new documents")
		return res
	}

	o.report(StagePlanning, "Planning document structure")
	plan, err := o.planStage(ctx, codebase, productID)
	if err != nil {
		log.Printf("orchestrator: planning failed, falling back to legacy flow: %v", err)
		res.Errors = append(res.Errors, err.Error())
		return o.runLegacy(ctx, productID, productName, repos, res)
	}

	o.report(StageGenerating, "Generating documents")
	genCtx, cancel := context.WithTimeout(ctx, o.generateTimeout())
	batch := o.Generator.GenerateBatch(genCtx, plan, codebase, productID, func(cur, total int, title string) {
		o.report(StageGenerating, fmt.Sprintf("Generating %d/%d: %s", cur, total, title))
	})
	cancel()
	res.Generated = batch.TotalGenerated
	res.Failed = batch.Failed

	if o.Fingerprints != nil {
		if err := o.Fingerprints.SetFingerprint(ctx, productID, res.Fingerprint); err != nil {
			log.Printf("orchestrator: persist fingerprint: %v", err)
		}
	}

	o.housekeeping(ctx, productID, productName, &res)
	o.report(StageComplete, fmt.Sprintf("Generated %d documents", res.Generated))
	return res
}

func (o *Orchestrator) analyzeStage(ctx context.Context, repos []source.RepoRef) (*analyzer.Context, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.analyzeTimeout())
	defer cancel()

	codebase, err := o.Analyzer.Analyze(stageCtx, repos)
	if err != nil {
		return nil, err
	}
	if stageCtx.Err() != nil {
		return nil, fmt.Errorf("analysis timed out: %w", stageCtx.Err())
	}
	return codebase, nil
}

func (o *Orchestrator) planStage(ctx context.Context, codebase *analyzer.Context, productID string) (*planner.DocumentationPlan, error) {
	var existing []planner.ExistingDoc
	if o.Docs != nil {
		docs, err := o.Docs.ListByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			existing = append(existing, planner.ExistingDoc{Title: d.Title, Type: d.Type, Folder: d.FolderPath})
		}
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.planTimeout())
	defer cancel()

	planRes := o.Planner.CreatePlan(stageCtx, codebase, existing, len(existing) > 0)
	if !planRes.Success {
		return nil, fmt.Errorf("planning failed: %s", planRes.Error)
	}
	return planRes.Plan, nil
}

// runLegacy is the safety net: scan, changelog, fixed blueprints, plan
// cleanup. It never falls back further; failures are recorded and the
// run still completes.
func (o *Orchestrator) runLegacy(ctx context.Context, productID, productName string, repos []source.RepoRef, res Result) Result {
	res.Flow = "legacy"

	o.report(StageScanning, "Scanning repositories")
	if o.Importer != nil && res.Imported == 0 {
		n, err := o.Importer.Import(ctx, productID, repos)
		if err != nil {
			log.Printf("orchestrator: legacy import: %v", err)
			res.Errors = append(res.Errors, err.Error())
		}
		res.Imported = n
	}

	o.report(StageChangelog, "Ensuring changelog")
	if o.Changelog != nil {
		if _, err := o.Changelog.Ensure(ctx, productID, productName); err != nil {
			log.Printf("orchestrator: legacy changelog: %v", err)
			res.Errors = append(res.Errors, err.Error())
		}
	}

	o.report(StageBlueprints, "Writing baseline documents")
	if o.Blueprints != nil {
		n, err := o.Blueprints.Run(ctx, productID, productName, repos)
		if err != nil {
			log.Printf("orchestrator: legacy blueprints: %v", err)
			res.Errors = append(res.Errors, err.Error())
		}
		res.Generated += n
	}

	o.report(StagePlansCleanup, "Tidying plans")
	if o.Plans != nil {
		moved, err := o.Plans.Run(ctx, productID)
		if err != nil {
			log.Printf("orchestrator: legacy plans: %v", err)
		}
		res.PlansMoved = moved
	}

	o.report(StageComplete, "Legacy flow complete")
	return res
}

// housekeeping runs the changelog and plans stages shared by every
// successful path, including skip-if-unchanged.
func (o *Orchestrator) housekeeping(ctx context.Context, productID, productName string, res *Result) {
	o.report(StageChangelog, "Updating changelog")
	if o.Changelog != nil {
		if _, err := o.Changelog.Ensure(ctx, productID, productName); err != nil {
			log.Printf("orchestrator: changelog: %v", err)
			res.Errors = append(res.Errors, err.Error())
		} else if res.Generated > 0 {
			entry := []Change{{
				Category:    "Added",
				Description: fmt.Sprintf("Generated %d documentation documents from codebase analysis", res.Generated),
			}}
			if err := o.Changelog.AddEntry(ctx, productID, productName, "", entry); err != nil {
				log.Printf("orchestrator: changelog entry: %v", err)
			}
		}
	}

	o.report(StagePlansCleanup, "Tidying plans")
	if o.Plans != nil {
		moved, err := o.Plans.Run(ctx, productID)
		if err != nil {
			log.Printf("orchestrator: plans: %v", err)
		}
		res.PlansMoved = moved
	}
}

func (o *Orchestrator) report(stage, message string) {
	if o.Progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("orchestrator: progress callback panicked: %v", r)
		}
	}()
	o.Progress(stage, message)
}

func (o *Orchestrator) analyzeTimeout() time.Duration {
	if o.AnalyzeTimeout > 0 {
		return o.AnalyzeTimeout
	}
	return DefaultAnalyzeTimeout
}

func (o *Orchestrator) planTimeout() time.Duration {
	if o.PlanTimeout > 0 {
		return o.PlanTimeout
	}
	return DefaultPlanTimeout
}

func (o *Orchestrator) generateTimeout() time.Duration {
	if o.GenerateTimeout > 0 {
		return o.GenerateTimeout
	}
	return DefaultGenerateTimeout
}
