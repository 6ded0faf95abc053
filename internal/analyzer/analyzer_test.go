package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsmith/internal/source"
)

type stubFetcher struct {
	trees map[string]*source.Tree
	files map[string]string
	fail  map[string]error
}

func key(owner, repo string) string { return owner + "/" + repo }

func (s *stubFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*source.Tree, error) {
	if err := s.fail[key(owner, repo)]; err != nil {
		return nil, err
	}
	t, ok := s.trees[key(owner, repo)]
	if !ok {
		return nil, source.ErrNotFound
	}
	return t, nil
}

func (s *stubFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range paths {
		if c, ok := s.files[key(owner, repo)+":"+p]; ok {
			if maxSize > 0 && len(c) > maxSize {
				continue
			}
			out[p] = c
		}
	}
	return out, nil
}

func (s *stubFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	if c, ok := s.files[key(owner, repo)+":"+path]; ok {
		return c, nil
	}
	return "", source.ErrNotFound
}

func TestFileTierPriorities(t *testing.T) {
	assert.Equal(t, 1, FileTier("README.md"))
	assert.Equal(t, 1, FileTier("docs/setup.md"))
	assert.Equal(t, 1, FileTier("package.json"))
	assert.Equal(t, 1, FileTier("Dockerfile"))

	assert.Equal(t, 2, FileTier("backend/models.py"))
	assert.Equal(t, 2, FileTier("src/routes/users.ts"))
	assert.Equal(t, 2, FileTier("app.py"))
	assert.Equal(t, 2, FileTier("prisma/schema.prisma"))

	assert.Equal(t, 3, FileTier("tests/test_auth.py"))
	assert.Equal(t, 3, FileTier("src/Button.test.tsx"))
	assert.Equal(t, 3, FileTier("lib/utils.py"))

	assert.Equal(t, 0, FileTier("src/random_module.py.bak"))
	assert.Equal(t, 0, FileTier("assets/logo.png"))
}

func TestSkipRulesWinOverTiers(t *testing.T) {
	// Would be tier 1 by name, but lives under node_modules.
	assert.Equal(t, 0, FileTier("node_modules/pkg/package.json"))
	assert.True(t, ShouldSkip("dist/models.py"))
	assert.True(t, ShouldSkip("package-lock.json"))
	assert.Equal(t, 0, FileTier("package-lock.json"))
}

func TestAnalyzeBudgetAndErrors(t *testing.T) {
	big := strings.Repeat("x", 90_000) // ~22_500 tokens, over the per-repo floor
	fetcher := &stubFetcher{
		trees: map[string]*source.Tree{
			"acme/app": {
				Files:       []string{"README.md", "backend/models.py", "backend/huge_models.py"},
				Directories: []string{"backend"},
			},
		},
		files: map[string]string{
			"acme/app:README.md":              "# App\nA FastAPI service.",
			"acme/app:backend/models.py":      "from sqlmodel import SQLModel\nclass User(SQLModel, table=True):\n    id: int\n    email: str\n",
			"acme/app:backend/huge_models.py": big,
		},
		fail: map[string]error{"acme/broken": errors.New("boom")},
	}

	a := New(fetcher)
	a.TokenBudget = 40_000
	got, err := a.Analyze(context.Background(), []source.RepoRef{
		{FullName: "acme/app"},
		{FullName: "acme/broken"},
	})
	require.NoError(t, err)
	require.Len(t, got.Repositories, 2)

	paths := map[string]bool{}
	for _, f := range got.AllKeyFiles {
		paths[f.Path] = true
	}
	assert.True(t, paths["README.md"])
	assert.True(t, paths["backend/models.py"])
	assert.False(t, paths["backend/huge_models.py"], "tier-2 file over remaining budget must be skipped")

	// Broken repo yields an error entry but does not sink the run.
	broken := got.Repositories[1]
	assert.Equal(t, "acme/broken", broken.FullName)
	assert.NotEmpty(t, broken.Errors)
	assert.Empty(t, broken.KeyFiles)
	assert.NotEmpty(t, got.Errors)

	require.Len(t, got.AllModels, 1)
	assert.Equal(t, "User", got.AllModels[0].Name)
	assert.Equal(t, []string{"id", "email"}, got.AllModels[0].Fields)
}

func TestAnalyzeNeverFetchesTierThree(t *testing.T) {
	fetcher := &stubFetcher{
		trees: map[string]*source.Tree{
			"acme/app": {
				Files: []string{"README.md", "tests/test_auth.py", "lib/utils.py"},
			},
		},
		files: map[string]string{
			"acme/app:README.md":          "# App",
			"acme/app:tests/test_auth.py": "def test_login(): pass",
			"acme/app:lib/utils.py":       "def helper(): pass",
		},
	}

	got, err := New(fetcher).Analyze(context.Background(), []source.RepoRef{{FullName: "acme/app"}})
	require.NoError(t, err)

	require.Len(t, got.AllKeyFiles, 1)
	assert.Equal(t, "README.md", got.AllKeyFiles[0].Path)
	for _, f := range got.AllKeyFiles {
		assert.NotEqual(t, 3, f.Tier, "%s: tier-3 files are tracked, not fetched", f.Path)
	}
	// Unfetched files still count toward coverage.
	assert.Equal(t, 3, got.TotalFiles)
}

func TestAnalyzeTierTwoStaysWithinBudget(t *testing.T) {
	readme := strings.Repeat("r", 40_000) // 10_000 tokens of tier 1
	tree := &source.Tree{Files: []string{"README.md"}}
	files := map[string]string{"acme/app:README.md": readme}
	for i := 0; i < 30; i++ {
		p := fmt.Sprintf("src/h%02d_routes.py", i)
		tree.Files = append(tree.Files, p)
		files["acme/app:"+p] = strings.Repeat("y", 4_000) // 1_000 tokens each
	}
	fetcher := &stubFetcher{
		trees: map[string]*source.Tree{"acme/app": tree},
		files: files,
	}

	a := New(fetcher)
	a.TokenBudget = 20_000
	got, err := a.Analyze(context.Background(), []source.RepoRef{{FullName: "acme/app"}})
	require.NoError(t, err)

	tier1, tier2 := 0, 0
	for _, f := range got.AllKeyFiles {
		switch f.Tier {
		case 1:
			tier1 += f.TokenEstimate
		case 2:
			tier2 += f.TokenEstimate
		}
	}
	assert.Equal(t, 10_000, tier1)
	assert.LessOrEqual(t, tier2, a.TokenBudget-tier1, "tier 2 spends only what tier 1 left over")
	assert.LessOrEqual(t, got.TotalTokens, a.TokenBudget)
}

func TestAnalyzeUnionsPatternsPerRepo(t *testing.T) {
	fetcher := &stubFetcher{
		trees: map[string]*source.Tree{
			"acme/web": {
				Files:       []string{"README.md"},
				Directories: []string{"frontend", "frontend/src"},
			},
			"acme/api": {
				Files:       []string{"README.md"},
				Directories: []string{"backend"},
			},
		},
		files: map[string]string{
			"acme/web:README.md": "# Web",
			"acme/api:README.md": "# API",
		},
	}

	got, err := New(fetcher).Analyze(context.Background(), []source.RepoRef{
		{FullName: "acme/web"},
		{FullName: "acme/api"},
	})
	require.NoError(t, err)

	// Neither repo has both halves, so the combined view must not
	// invent a split out of directories from different repos.
	assert.NotContains(t, got.DetectedPatterns, "Frontend/Backend Split")
	for _, ra := range got.Repositories {
		assert.NotContains(t, ra.DetectedPatterns, "Frontend/Backend Split")
	}
}

func TestDetectTechStack(t *testing.T) {
	files := []string{"app/main.py", "web/index.tsx", "package.json", "Dockerfile"}
	contents := map[string]string{
		"app/main.py":   "from fastapi import FastAPI\napp = FastAPI()\nDATABASE_URL = 'postgresql://localhost/db'",
		"web/index.tsx": "import { useState } from 'react'",
		"package.json":  `{"dependencies": {"react": "^18.0.0"}}`,
		"Dockerfile":    "FROM python:3.12",
	}
	stack := DetectTechStack(files, contents)

	assert.Equal(t, []string{"Python", "TypeScript"}, stack.Languages)
	assert.Contains(t, stack.Frameworks, "FastAPI")
	assert.Contains(t, stack.Frameworks, "React")
	assert.Equal(t, []string{"PostgreSQL"}, stack.Databases)
	assert.Contains(t, stack.Infrastructure, "Docker")
	assert.Equal(t, []string{"npm", "pip"}, stack.PackageManagers)
}

func TestTechStackMarkersRequireFetchedFiles(t *testing.T) {
	// package.json appears in the tree but was never fetched, so it
	// proves nothing about the package manager in use.
	stack := DetectTechStack([]string{"package.json", "cmd/main.go"}, map[string]string{})
	assert.Empty(t, stack.PackageManagers)
	assert.Equal(t, []string{"Go"}, stack.Languages)
}

func TestExtractEndpoints(t *testing.T) {
	py := `
@app.get("/users")
async def list_users():
    pass

@router.post("/users/{user_id}/posts")
def create_post(user_id: int):
    pass
`
	eps := ExtractEndpoints("backend/routes.py", py)
	require.Len(t, eps, 2)
	assert.Equal(t, EndpointInfo{Method: "GET", Path: "/users", File: "backend/routes.py", Handler: "list_users"}, eps[0])
	assert.Equal(t, "POST", eps[1].Method)
	assert.Equal(t, "/users/{user_id}/posts", eps[1].Path)

	flask := `
@app.route("/items", methods=["GET", "POST"])
def items():
    pass
`
	eps = ExtractEndpoints("app.py", flask)
	require.Len(t, eps, 2)
	assert.Equal(t, "GET", eps[0].Method)
	assert.Equal(t, "POST", eps[1].Method)
	assert.Equal(t, "items", eps[0].Handler)

	express := `router.get('/api/health', (req, res) => res.send('ok'))`
	eps = ExtractEndpoints("server/routes.ts", express)
	require.Len(t, eps, 1)
	assert.Equal(t, "GET", eps[0].Method)
	assert.Equal(t, "/api/health", eps[0].Path)

	next := `export async function POST(req: Request) { return new Response() }`
	eps = ExtractEndpoints("app/api/users/route.ts", next)
	require.Len(t, eps, 1)
	assert.Equal(t, EndpointInfo{Method: "POST", Path: "/", File: "app/api/users/route.ts"}, eps[0])
}

func TestExtractModelsTypeScriptAndPrisma(t *testing.T) {
	ts := `
interface User {
  id: string
  email?: string
  createdAt: Date
}
`
	models := ExtractModels("src/types.ts", ts)
	require.Len(t, models, 1)
	assert.Equal(t, "User", models[0].Name)
	assert.Equal(t, "typescript", models[0].Kind)
	assert.Equal(t, []string{"id", "email", "createdAt"}, models[0].Fields)

	prisma := `
model Post {
  id        String @id
  title     String
  authorId  String
}
`
	models = ExtractModels("prisma/schema.prisma", prisma)
	require.Len(t, models, 1)
	assert.Equal(t, "Post", models[0].Name)
	assert.Equal(t, []string{"id", "title", "authorId"}, models[0].Fields)
}

func TestDetectPatterns(t *testing.T) {
	dirs := []string{"frontend", "frontend/src", "backend", "backend/app", "backend/app/domain", "backend/models", "backend/routes"}
	stack := TechStack{Frameworks: []string{"FastAPI", "React"}}

	got := DetectPatterns(dirs, stack)
	assert.Contains(t, got, "Frontend/Backend Split")
	assert.Contains(t, got, "REST API")
	assert.Contains(t, got, "MVC/Layered Architecture")
	assert.Contains(t, got, "Domain-Driven Design")
	assert.NotContains(t, got, "Monorepo")
	assert.NotContains(t, got, "Microservices")
}

func TestDetectPatternsRequiresExactDirectoryNames(t *testing.T) {
	// Directory names that merely contain the markers do not count.
	got := DetectPatterns([]string{"webpack", "serverless", "my-packages"}, TechStack{})
	assert.NotContains(t, got, "Frontend/Backend Split")
	assert.NotContains(t, got, "Monorepo")

	got = DetectPatterns([]string{"packages"}, TechStack{})
	assert.Contains(t, got, "Monorepo")
}

func TestFingerprintStability(t *testing.T) {
	ctx := &Context{
		Repositories: []RepoAnalysis{
			{FullName: "acme/app", Branch: "main", TotalFiles: 10},
			{FullName: "acme/web", Branch: "main", TotalFiles: 4},
		},
		AllKeyFiles:      []FileContent{{Path: "README.md", TokenEstimate: 5}},
		DetectedPatterns: []string{"REST API"},
		TotalFiles:       14,
		TotalTokens:      5,
	}

	fp := Fingerprint(ctx)
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, Fingerprint(ctx), "same analysis must hash identically")

	// Repo order must not matter.
	reordered := *ctx
	reordered.Repositories = []RepoAnalysis{ctx.Repositories[1], ctx.Repositories[0]}
	assert.Equal(t, fp, Fingerprint(&reordered))

	// Content edits that change no counted shape must not matter.
	edited := *ctx
	edited.AllKeyFiles = []FileContent{{Path: "README.md", Content: "different", TokenEstimate: 5}}
	assert.Equal(t, fp, Fingerprint(&edited))

	// A new key file must change the hash.
	grown := *ctx
	grown.AllKeyFiles = append([]FileContent{{Path: "go.mod"}}, ctx.AllKeyFiles...)
	assert.NotEqual(t, fp, Fingerprint(&grown))
}

func TestShouldSkipGeneration(t *testing.T) {
	assert.False(t, ShouldSkipGeneration("", "abc"))
	assert.True(t, ShouldSkipGeneration("abc", "abc"))
	assert.False(t, ShouldSkipGeneration("abc", "def"))
}
