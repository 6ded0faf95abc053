package source

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	treeCacheSize    = 100
	treeCacheTTL     = 5 * time.Minute
	contentCacheSize = 512
	contentCacheTTL  = time.Hour
)

// CachedFetcher memoizes tree listings and file contents of another
// Fetcher. Trees are short-lived so pushes show up quickly; file blobs
// are immutable enough to keep for an hour.
type CachedFetcher struct {
	inner    Fetcher
	trees    *expirable.LRU[string, *Tree]
	contents *expirable.LRU[string, string]
}

func NewCachedFetcher(inner Fetcher) *CachedFetcher {
	return &CachedFetcher{
		inner:    inner,
		trees:    expirable.NewLRU[string, *Tree](treeCacheSize, nil, treeCacheTTL),
		contents: expirable.NewLRU[string, string](contentCacheSize, nil, contentCacheTTL),
	}
}

func repoKey(owner, repo, branch string) string {
	return owner + "/" + repo + "@" + branch
}

func (c *CachedFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	key := repoKey(owner, repo, branch)
	if tree, ok := c.trees.Get(key); ok {
		return tree, nil
	}
	tree, err := c.inner.GetRepoTree(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	c.trees.Add(key, tree)
	return tree, nil
}

func (c *CachedFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	var missing []string
	for _, p := range paths {
		if content, ok := c.contents.Get(repoKey(owner, repo, branch) + ":" + p); ok {
			if maxSize > 0 && len(content) > maxSize {
				continue
			}
			out[p] = content
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.inner.FetchFilesByPaths(ctx, owner, repo, missing, branch, maxSize)
	if err != nil {
		return nil, err
	}
	for p, content := range fetched {
		c.contents.Add(repoKey(owner, repo, branch)+":"+p, content)
		out[p] = content
	}
	return out, nil
}

func (c *CachedFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	key := repoKey(owner, repo, branch) + ":" + path
	if content, ok := c.contents.Get(key); ok {
		return content, nil
	}
	content, err := c.inner.GetFileContent(ctx, owner, repo, path, branch)
	if err != nil {
		return "", err
	}
	c.contents.Add(key, content)
	return content, nil
}
