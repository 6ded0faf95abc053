package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitFetcher clones remote repositories into a scratch directory and
// serves them through LocalFetcher. Clones are shallow and cached per
// owner/repo/branch for the lifetime of the fetcher.
type GitFetcher struct {
	baseURL string // e.g. "https://github.com"

	mu     sync.Mutex
	clones map[string]*LocalFetcher
	dirs   []string
}

func NewGitFetcher(baseURL string) *GitFetcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://github.com"
	}
	return &GitFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		clones:  map[string]*LocalFetcher{},
	}
}

func (g *GitFetcher) local(ctx context.Context, owner, repo, branch string) (*LocalFetcher, error) {
	key := owner + "/" + repo + "@" + branch
	g.mu.Lock()
	defer g.mu.Unlock()
	if lf, ok := g.clones[key]; ok {
		return lf, nil
	}

	dir, err := os.MkdirTemp("", "docsmith-clone-*")
	if err != nil {
		return nil, fmt.Errorf("source: mkdir temp: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s.git", g.baseURL, owner, repo)
	opts := &git.CloneOptions{URL: url, Depth: 1, SingleBranch: true}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("source: clone %s: %w", url, err)
	}

	lf, err := NewLocalFetcher(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	g.clones[key] = lf
	g.dirs = append(g.dirs, dir)
	return lf, nil
}

func (g *GitFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	lf, err := g.local(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	return lf.GetRepoTree(ctx, owner, repo, branch)
}

func (g *GitFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	lf, err := g.local(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	return lf.FetchFilesByPaths(ctx, owner, repo, paths, branch, maxSize)
}

func (g *GitFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	lf, err := g.local(ctx, owner, repo, branch)
	if err != nil {
		return "", err
	}
	return lf.GetFileContent(ctx, owner, repo, path, branch)
}

// Cleanup removes all clone directories.
func (g *GitFetcher) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range g.dirs {
		os.RemoveAll(d)
	}
	g.dirs = nil
	g.clones = map[string]*LocalFetcher{}
}
