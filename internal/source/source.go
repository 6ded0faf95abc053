package source

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested file does not exist in the repo.
var ErrNotFound = errors.New("source: file not found")

// RepoRef identifies one repository to analyze.
type RepoRef struct {
	FullName      string // "owner/name"
	DefaultBranch string
	Description   string
}

// Owner returns the part of FullName before the first slash.
func (r RepoRef) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return r.FullName
}

// Name returns the part of FullName after the first slash.
func (r RepoRef) Name() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[i+1:]
		}
	}
	return ""
}

// Branch returns DefaultBranch or "main" when unset.
func (r RepoRef) Branch() string {
	if r.DefaultBranch == "" {
		return "main"
	}
	return r.DefaultBranch
}

// Tree is the file listing of one repository at one branch.
type Tree struct {
	Files       []string
	Directories []string
}

// Fetcher is the source boundary. Implementations exist for the local
// filesystem, git clones, and the GitHub API.
type Fetcher interface {
	// GetRepoTree lists every file and directory path in the repo.
	GetRepoTree(ctx context.Context, owner, repo, branch string) (*Tree, error)
	// FetchFilesByPaths returns contents keyed by path. Files larger than
	// maxSize bytes and files that cannot be read are silently omitted.
	FetchFilesByPaths(ctx context.Context, owner, repo string, paths []string, branch string, maxSize int) (map[string]string, error)
	// GetFileContent returns one file's content, or ErrNotFound.
	GetFileContent(ctx context.Context, owner, repo, path, branch string) (string, error)
}
