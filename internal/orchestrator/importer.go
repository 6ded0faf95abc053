package orchestrator

import (
	"context"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"docsmith/internal/docutil"
	"docsmith/internal/source"
	"docsmith/internal/store"
)

// rootDocNames are markdown files outside docs/ still worth importing.
var rootDocNames = map[string]bool{
	"changelog.md": true,
	"changes.md":   true,
	"history.md":   true,
}

const importMaxFileSize = 200_000

// Importer pulls existing markdown out of the repositories so the
// planner knows what documentation already exists and generated docs
// do not duplicate hand-written ones.
type Importer struct {
	docs    store.DocumentStore
	fetcher source.Fetcher
}

func NewImporter(docs store.DocumentStore, fetcher source.Fetcher) *Importer {
	return &Importer{docs: docs, fetcher: fetcher}
}

// Import scans every repo for docs/ markdown and root changelogs and
// stores them as non-generated documents. Already-imported titles are
// left alone.
func (im *Importer) Import(ctx context.Context, productID string, repos []source.RepoRef) (int, error) {
	existing, err := im.docs.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	knownTitles := map[string]bool{}
	for _, d := range existing {
		knownTitles[strings.ToLower(d.Title)] = true
	}

	imported := 0
	for _, repo := range repos {
		tree, err := im.fetcher.GetRepoTree(ctx, repo.Owner(), repo.Name(), repo.Branch())
		if err != nil {
			log.Printf("orchestrator: import scan %s: %v", repo.FullName, err)
			continue
		}

		var wanted []string
		for _, f := range tree.Files {
			if !strings.HasSuffix(strings.ToLower(f), ".md") {
				continue
			}
			if strings.HasPrefix(f, "docs/") || rootDocNames[strings.ToLower(path.Base(f))] && !strings.Contains(f, "/") {
				wanted = append(wanted, f)
			}
		}
		if len(wanted) == 0 {
			continue
		}

		contents, err := im.fetcher.FetchFilesByPaths(ctx, repo.Owner(), repo.Name(), wanted, repo.Branch(), importMaxFileSize)
		if err != nil {
			log.Printf("orchestrator: import fetch %s: %v", repo.FullName, err)
			continue
		}

		for _, f := range wanted {
			content, ok := contents[f]
			if !ok {
				continue
			}
			title := docutil.ExtractTitle(content, f)
			if knownTitles[strings.ToLower(title)] {
				continue
			}
			doc := &store.Document{
				ID:           uuid.NewString(),
				ProductID:    productID,
				Title:        title,
				Content:      content,
				Type:         docutil.InferDocType(f),
				FolderPath:   docutil.MapPathToFolder(f),
				RepositoryID: repo.FullName,
			}
			if err := im.docs.Put(ctx, doc); err != nil {
				log.Printf("orchestrator: import save %s: %v", f, err)
				continue
			}
			knownTitles[strings.ToLower(title)] = true
			imported++
		}
	}
	return imported, nil
}
