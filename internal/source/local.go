package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Directories never worth walking into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"build":        true,
	"dist":         true,
	".next":        true,
	".cache":       true,
	"__pycache__":  true,
}

// LocalFetcher serves a repository checked out on the local filesystem.
// The owner/repo/branch arguments of the Fetcher interface are ignored;
// one LocalFetcher serves exactly one working tree. Paths listed in the
// repo's .gitignore are excluded from the tree.
type LocalFetcher struct {
	root   string
	ignore *gitignore.GitIgnore
}

func NewLocalFetcher(root string) (*LocalFetcher, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("source: root is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: root %q is not a directory", root)
	}

	f := &LocalFetcher{root: root}
	if ign, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		f.ignore = ign
	}
	return f, nil
}

func (f *LocalFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	tree := &Tree{}
	dirSeen := map[string]bool{}

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(f.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if f.ignore != nil && f.ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if !dirSeen[rel] {
				dirSeen[rel] = true
				tree.Directories = append(tree.Directories, rel)
			}
			return nil
		}
		if f.ignore != nil && f.ignore.MatchesPath(rel) {
			return nil
		}
		tree.Files = append(tree.Files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", f.root, err)
	}

	sort.Strings(tree.Files)
	sort.Strings(tree.Directories)
	return tree, nil
}

func (f *LocalFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
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

func (f *LocalFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(f.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}
