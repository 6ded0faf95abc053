package refresher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsmith/internal/analyzer"
	"docsmith/internal/llm"
	"docsmith/internal/store"
)

func fastRefresher(fake *llm.FakeClient, docs store.DocumentStore) *Refresher {
	return &Refresher{
		client: llm.Wrap(fake, llm.Retry(llm.MaxRetries, []time.Duration{time.Millisecond})),
		docs:   docs,
	}
}

func refreshCodebase() *analyzer.Context {
	return &analyzer.Context{
		AllKeyFiles: []analyzer.FileContent{
			{Path: "README.md", Content: "# App", Tier: 1, TokenEstimate: 5},
			{Path: "backend/routes.py", Content: "@app.get('/users')", Tier: 2, TokenEstimate: 10},
			{Path: "backend/models.py", Content: "class User: ...", Tier: 2, TokenEstimate: 10},
		},
	}
}

func refreshResponse(needsUpdate bool, summary, content string) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"needs_update": needsUpdate,
		"summary":      summary,
		"content":      content,
	})
	return raw
}

func TestMentionedPaths(t *testing.T) {
	content := "See `backend/routes.py` for routes.\n\n```python\n# backend/models.py\nclass User: ...\n```\n\nAlso check src/api/handler.ts for details."
	paths := mentionedPaths(content)
	assert.True(t, paths["backend/routes.py"])
	assert.True(t, paths["backend/models.py"])
	assert.True(t, paths["src/api/handler.ts"])
}

func TestRefreshDocumentUpdates(t *testing.T) {
	fake := llm.NewFakeClient(map[string]json.RawMessage{
		"save_refresh_result": refreshResponse(true, "Route list changed", "# Routes\n\nUpdated."),
	})
	docs := store.NewMemoryStore()
	ctx := context.Background()

	doc := &store.Document{ID: "d1", ProductID: "p1", Title: "Routes", Type: "architecture",
		Content: "Documented in `backend/routes.py`."}
	require.NoError(t, docs.Put(ctx, doc))

	r := fastRefresher(fake, docs)
	out := r.RefreshDocument(ctx, doc, refreshCodebase())

	assert.Equal(t, StatusUpdated, out.Status)
	assert.Equal(t, "Route list changed", out.Summary)

	stored, err := docs.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "# Routes\n\nUpdated.", stored.Content)
}

func TestRefreshDocumentUnchanged(t *testing.T) {
	fake := llm.NewFakeClient(map[string]json.RawMessage{
		"save_refresh_result": refreshResponse(false, "Still accurate", ""),
	})
	docs := store.NewMemoryStore()
	r := fastRefresher(fake, docs)

	doc := &store.Document{ID: "d1", Title: "Routes", Type: "architecture",
		Content: "Documented in `backend/routes.py`."}
	out := r.RefreshDocument(context.Background(), doc, refreshCodebase())

	assert.Equal(t, StatusUnchanged, out.Status)
	assert.Equal(t, "Still accurate", out.Summary)
}

func TestRefreshDocumentNoRelevantFiles(t *testing.T) {
	fake := llm.NewFakeClient(nil)
	r := fastRefresher(fake, store.NewMemoryStore())

	doc := &store.Document{ID: "d1", Title: "Planning Notes", Type: "plan",
		Content: "Ship the thing next quarter."}
	out := r.RefreshDocument(context.Background(), doc, refreshCodebase())

	assert.Equal(t, StatusUnchanged, out.Status)
	assert.Equal(t, "No relevant source files found to compare against", out.Summary)
	assert.Zero(t, fake.CallCount(), "no LLM call without context to compare")
}

func TestRefreshDocumentParseFailure(t *testing.T) {
	fake := llm.NewFakeClient(nil)
	fake.Script = func(call int, req llm.Request) (json.RawMessage, error) {
		return nil, llm.ErrNoToolUse
	}
	r := fastRefresher(fake, store.NewMemoryStore())

	doc := &store.Document{ID: "d1", Title: "Routes", Type: "architecture",
		Content: "Documented in `backend/routes.py`."}
	out := r.RefreshDocument(context.Background(), doc, refreshCodebase())

	assert.Equal(t, StatusUnchanged, out.Status)
	assert.Equal(t, "Failed to parse response", out.Summary)
}

func TestRelevantFilesTypeFallbackAndTopUp(t *testing.T) {
	// Architecture doc with no mentioned paths: type-typical files plus
	// tier-1 top-up.
	doc := &store.Document{Type: "architecture", Content: "High level description only."}
	files := relevantFiles(doc, refreshCodebase(), 50_000)

	paths := map[string]bool{}
	for _, f := range files {
		paths[f.Path] = true
	}
	assert.True(t, paths["backend/routes.py"])
	assert.True(t, paths["README.md"], "tier-1 top-up expected under half budget")
	assert.False(t, paths["backend/models.py"])
}
