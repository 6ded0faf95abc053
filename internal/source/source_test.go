package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLocalFetcherTreeSkipsJunkDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# hello")
	writeFile(t, root, "src/main.py", "print('hi')")
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, "__pycache__/m.pyc", "x")

	f, err := NewLocalFetcher(root)
	require.NoError(t, err)

	tree, err := f.GetRepoTree(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src/main.py"}, tree.Files)
	assert.Equal(t, []string{"src"}, tree.Directories)
}

func TestLocalFetcherHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "secret.env\ngenerated/\n")
	writeFile(t, root, "secret.env", "KEY=1")
	writeFile(t, root, "generated/out.js", "x")
	writeFile(t, root, "app.py", "pass")

	f, err := NewLocalFetcher(root)
	require.NoError(t, err)

	tree, err := f.GetRepoTree(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Contains(t, tree.Files, "app.py")
	assert.NotContains(t, tree.Files, "secret.env")
	assert.NotContains(t, tree.Files, "generated/out.js")
}

func TestLocalFetcherFetchFilesByPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", "tiny")
	writeFile(t, root, "big.md", string(make([]byte, 200)))

	f, err := NewLocalFetcher(root)
	require.NoError(t, err)

	got, err := f.FetchFilesByPaths(context.Background(), "", "", []string{"small.md", "big.md", "missing.md"}, "", 100)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"small.md": "tiny"}, got)
}

func TestLocalFetcherRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.txt", "yes")

	f, err := NewLocalFetcher(root)
	require.NoError(t, err)

	_, err = f.GetFileContent(context.Background(), "", "", "../outside.txt", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.GetFileContent(context.Background(), "", "", "/etc/passwd", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingFetcher struct {
	inner     Fetcher
	treeCalls int
	fileCalls int
}

func (c *countingFetcher) GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	c.treeCalls++
	return c.inner.GetRepoTree(ctx, owner, repo, branch)
}

func (c *countingFetcher) FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error) {
	c.fileCalls++
	return c.inner.FetchFilesByPaths(ctx, owner, repo, paths, branch, maxSize)
}

func (c *countingFetcher) GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error) {
	c.fileCalls++
	return c.inner.GetFileContent(ctx, owner, repo, path, branch)
}

func TestCachedFetcherMemoizes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# cached")

	lf, err := NewLocalFetcher(root)
	require.NoError(t, err)
	counter := &countingFetcher{inner: lf}
	cf := NewCachedFetcher(counter)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tree, err := cf.GetRepoTree(ctx, "acme", "app", "main")
		require.NoError(t, err)
		assert.Equal(t, []string{"README.md"}, tree.Files)
	}
	assert.Equal(t, 1, counter.treeCalls)

	for i := 0; i < 3; i++ {
		content, err := cf.GetFileContent(ctx, "acme", "app", "README.md", "main")
		require.NoError(t, err)
		assert.Equal(t, "# cached", content)
	}
	assert.Equal(t, 1, counter.fileCalls)
}

func TestRepoRefParsing(t *testing.T) {
	r := RepoRef{FullName: "acme/webapp"}
	assert.Equal(t, "acme", r.Owner())
	assert.Equal(t, "webapp", r.Name())
	assert.Equal(t, "main", r.Branch())

	r.DefaultBranch = "develop"
	assert.Equal(t, "develop", r.Branch())
}
