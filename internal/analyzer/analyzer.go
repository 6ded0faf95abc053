package analyzer

import (
	"context"
	"fmt"
	"log"

	"docsmith/internal/source"
)

// Analyzer turns repository trees into the combined Context the rest of
// the pipeline works from, spending at most TokenBudget estimated
// tokens on fetched file contents across all repos.
type Analyzer struct {
	Fetcher     source.Fetcher
	TokenBudget int
}

func New(fetcher source.Fetcher) *Analyzer {
	return &Analyzer{Fetcher: fetcher, TokenBudget: DefaultTokenBudget}
}

// Analyze inspects every repo and combines the results. A repo whose
// tree cannot be listed contributes only an error entry.
func (a *Analyzer) Analyze(ctx context.Context, repos []source.RepoRef) (*Context, error) {
	if len(repos) == 0 {
		return nil, fmt.Errorf("analyzer: no repositories given")
	}

	budget := a.TokenBudget
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	perRepo := budget / len(repos)
	if perRepo < MinRepoTokenBudget {
		perRepo = MinRepoTokenBudget
	}

	combined := &Context{}
	for _, repo := range repos {
		ra := a.analyzeRepo(ctx, repo, perRepo)
		combined.Repositories = append(combined.Repositories, ra)
		combined.CombinedStack = mergeStacks(combined.CombinedStack, ra.Stack)
		combined.AllKeyFiles = append(combined.AllKeyFiles, ra.KeyFiles...)
		combined.AllModels = append(combined.AllModels, ra.Models...)
		combined.AllEndpoints = append(combined.AllEndpoints, ra.Endpoints...)
		combined.TotalFiles += ra.TotalFiles
		combined.Errors = append(combined.Errors, ra.Errors...)
	}

	patternSet := map[string]bool{}
	for _, ra := range combined.Repositories {
		for _, p := range ra.DetectedPatterns {
			patternSet[p] = true
		}
	}
	combined.DetectedPatterns = sortedKeys(patternSet)

	for _, f := range combined.AllKeyFiles {
		combined.TotalTokens += f.TokenEstimate
	}
	return combined, nil
}

func (a *Analyzer) analyzeRepo(ctx context.Context, repo source.RepoRef, budget int) RepoAnalysis {
	ra := RepoAnalysis{FullName: repo.FullName, Branch: repo.Branch()}

	tree, err := a.Fetcher.GetRepoTree(ctx, repo.Owner(), repo.Name(), repo.Branch())
	if err != nil {
		log.Printf("analyzer: %s: tree fetch failed: %v", repo.FullName, err)
		ra.Errors = append(ra.Errors, fmt.Sprintf("%s: %v", repo.FullName, err))
		return ra
	}
	ra.TotalFiles = len(tree.Files)

	// Tier 3 files are classified for coverage accounting only and are
	// never fetched.
	var tier1, tier2 []string
	for _, f := range tree.Files {
		switch FileTier(f) {
		case 1:
			tier1 = append(tier1, f)
		case 2:
			tier2 = append(tier2, f)
		}
	}

	remaining := budget

	// Tier 1 is always fetched, even past the budget.
	fetched := a.fetch(ctx, repo, tier1, &ra)
	for _, p := range tier1 {
		content, ok := fetched[p]
		if !ok {
			continue
		}
		remaining -= a.addKeyFile(&ra, p, content, 1)
	}

	// Tier 2 only while budget holds, and never more files than the
	// remaining budget could plausibly pay for.
	if remaining > 0 {
		limit := remaining / tier2CostEstimate
		if len(tier2) > limit {
			tier2 = tier2[:limit]
		}
		fetched = a.fetch(ctx, repo, tier2, &ra)
		for _, p := range tier2 {
			content, ok := fetched[p]
			if !ok {
				continue
			}
			if TokenEstimate(content) > remaining {
				continue
			}
			remaining -= a.addKeyFile(&ra, p, content, 2)
		}
	}

	contents := make(map[string]string, len(ra.KeyFiles))
	for _, f := range ra.KeyFiles {
		contents[f.Path] = f.Content
	}
	ra.Stack = DetectTechStack(tree.Files, contents)
	ra.DetectedPatterns = DetectPatterns(tree.Directories, ra.Stack)

	for _, f := range ra.KeyFiles {
		ra.Models = append(ra.Models, ExtractModels(f.Path, f.Content)...)
		ra.Endpoints = append(ra.Endpoints, ExtractEndpoints(f.Path, f.Content)...)
	}
	return ra
}

func (a *Analyzer) fetch(ctx context.Context, repo source.RepoRef, paths []string, ra *RepoAnalysis) map[string]string {
	if len(paths) == 0 {
		return nil
	}
	fetched, err := a.Fetcher.FetchFilesByPaths(ctx, repo.Owner(), repo.Name(), paths, repo.Branch(), MaxFileSize)
	if err != nil {
		ra.Errors = append(ra.Errors, fmt.Sprintf("%s: %v", repo.FullName, err))
		return nil
	}
	return fetched
}

func (a *Analyzer) addKeyFile(ra *RepoAnalysis, path, content string, tier int) int {
	tokens := TokenEstimate(content)
	ra.KeyFiles = append(ra.KeyFiles, FileContent{
		Path:          path,
		Content:       content,
		Size:          len(content),
		Tier:          tier,
		TokenEstimate: tokens,
	})
	return tokens
}
