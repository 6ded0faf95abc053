package source

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// GitHubFetcher reads repository trees and file contents through the
// GitHub REST API. An empty token gives unauthenticated (rate-limited)
// access to public repositories.
type GitHubFetcher struct {
	client *github.Client
}

func NewGitHubFetcher(ctx context.Context, token string) *GitHubFetcher {
	token = strings.TrimSpace(token)
	if token == "" {
		return &GitHubFetcher{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHubFetcher{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

func (f *GitHubFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	gt, _, err := f.client.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, fmt.Errorf("source: get tree %s/%s@%s: %w", owner, repo, branch, err)
	}

	tree := &Tree{}
	for _, entry := range gt.Entries {
		switch entry.GetType() {
		case "blob":
			tree.Files = append(tree.Files, entry.GetPath())
		case "tree":
			tree.Directories = append(tree.Directories, entry.GetPath())
		}
	}
	sort.Strings(tree.Files)
	sort.Strings(tree.Directories)
	return tree, nil
}

func (f *GitHubFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := f.GetFileContent(ctx, owner, repo, p, branch)
		if err != nil {
			continue
		}
		if maxSize > 0 && len(content) > maxSize {
			continue
		}
		out[p] = content
	}
	return out, nil
}

func (f *GitHubFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	fc, _, resp, err := f.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("source: get contents %s: %w", path, err)
	}
	if fc == nil {
		return "", ErrNotFound
	}
	content, err := fc.GetContent()
	if err != nil {
		return "", fmt.Errorf("source: decode contents %s: %w", path, err)
	}
	return content, nil
}
