package cli

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"docsmith/internal/analyzer"
	"docsmith/internal/config"
	"docsmith/internal/jobstore"
	"docsmith/internal/llm"
	"docsmith/internal/source"
	"docsmith/internal/store"
)

// app bundles the dependencies every subcommand needs. Stores are
// Postgres-backed when DATABASE_URL is set and in-memory otherwise.
type app struct {
	cfg     *config.Config
	client  llm.Client
	fetcher source.Fetcher
	docs    store.DocumentStore
	fps     store.FingerprintStore
	jobs    jobstore.Store

	db *sql.DB
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if err := a.initStores(); err != nil {
		return nil, err
	}
	if err := a.initClient(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initFetcher(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) initStores() error {
	if a.cfg.DatabaseURL == "" {
		mem := store.NewMemoryStore()
		a.docs = mem
		a.fps = mem
		a.jobs = jobstore.NewMemoryStore()
		return nil
	}

	db, err := sql.Open("pgx", a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	pg := store.NewPostgresStore(db)
	a.docs = pg
	a.fps = pg
	a.jobs = jobstore.NewPostgresStore(db)
	return nil
}

func (a *app) initClient(ctx context.Context) error {
	switch a.cfg.Provider {
	case "gemini":
		cli, err := llm.NewGeminiClient(ctx, "")
		if err != nil {
			return fmt.Errorf("init gemini client: %w", err)
		}
		a.client = cli
	default:
		cli, err := llm.NewAnthropicClient(llm.AnthropicConfig{APIKey: a.cfg.AnthropicAPIKey})
		if err != nil {
			return fmt.Errorf("init anthropic client: %w", err)
		}
		a.client = cli
	}
	return nil
}

func (a *app) initFetcher(ctx context.Context) error {
	switch flagSource {
	case "local":
		// The fetcher is built per invocation in repoSetup; nothing to
		// do here because the root path comes from the arguments.
		return nil
	case "git":
		a.fetcher = source.NewCachedFetcher(source.NewGitFetcher(""))
		return nil
	case "github":
		if a.cfg.GitHubToken == "" {
			// Anonymous clones still work where the API would rate-limit.
			a.fetcher = source.NewCachedFetcher(source.NewGitFetcher(""))
			return nil
		}
		a.fetcher = source.NewCachedFetcher(source.NewGitHubFetcher(ctx, a.cfg.GitHubToken))
		return nil
	default:
		return fmt.Errorf("unknown --source %q (want github, git, or local)", flagSource)
	}
}

// repoSetup resolves the positional arguments into repo references,
// building the local fetcher when --source local.
func (a *app) repoSetup(args []string) ([]source.RepoRef, error) {
	if flagSource == "local" {
		if len(args) != 1 {
			return nil, fmt.Errorf("--source local takes exactly one path argument")
		}
		f, err := source.NewLocalFetcher(args[0])
		if err != nil {
			return nil, err
		}
		a.fetcher = f
		name := filepath.Base(filepath.Clean(args[0]))
		return []source.RepoRef{{FullName: "local/" + name, DefaultBranch: flagBranch}}, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("at least one owner/name repository argument is required")
	}
	refs := make([]source.RepoRef, 0, len(args))
	for _, arg := range args {
		refs = append(refs, source.RepoRef{FullName: arg, DefaultBranch: flagBranch})
	}
	return refs, nil
}

func (a *app) newAnalyzer() *analyzer.Analyzer {
	an := analyzer.New(a.fetcher)
	if flagBudget > 0 {
		an.TokenBudget = flagBudget
	} else if a.cfg.TokenBudget > 0 {
		an.TokenBudget = a.cfg.TokenBudget
	}
	return an
}

func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
