package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsmith/internal/store"
)

func TestEnsureCreatesTemplate(t *testing.T) {
	docs := store.NewMemoryStore()
	agent := NewChangelogAgent(docs)

	doc, err := agent.Ensure(context.Background(), "prod-1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Changelog", doc.Title)
	assert.Equal(t, "changelog", doc.Type)
	assert.Contains(t, doc.Content, "All notable changes to Acme")
	assert.Contains(t, doc.Content, "## [Unreleased]")
	assert.Contains(t, doc.Content, "### Added")

	again, err := agent.Ensure(context.Background(), "prod-1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID, "second Ensure reuses the existing document")
}

func TestAddEntryUnreleased(t *testing.T) {
	docs := store.NewMemoryStore()
	agent := NewChangelogAgent(docs)

	err := agent.AddEntry(context.Background(), "prod-1", "Acme", "", []Change{
		{Category: "Added", Description: "New search endpoint"},
	})
	require.NoError(t, err)

	doc, err := docs.FindChangelog(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "- New search endpoint")

	unreleased := strings.Index(doc.Content, "## [Unreleased]")
	entry := strings.Index(doc.Content, "- New search endpoint")
	require.GreaterOrEqual(t, unreleased, 0)
	assert.Greater(t, entry, unreleased, "entry lands inside the Unreleased section")
}

func TestAddEntryVersionedAfterRule(t *testing.T) {
	docs := store.NewMemoryStore()
	agent := NewChangelogAgent(docs)

	err := agent.AddEntry(context.Background(), "prod-1", "Acme", "1.2.0", []Change{
		{Category: "Fixed", Description: "Pagination off-by-one"},
	})
	require.NoError(t, err)

	doc, err := docs.FindChangelog(context.Background(), "prod-1")
	require.NoError(t, err)

	heading := fmt.Sprintf("## [1.2.0] - %s", time.Now().Format("2006-01-02"))
	assert.Contains(t, doc.Content, heading)

	rule := strings.Index(doc.Content, "\n---\n")
	version := strings.Index(doc.Content, heading)
	unreleased := strings.Index(doc.Content, "## [Unreleased]")
	require.GreaterOrEqual(t, rule, 0)
	assert.Greater(t, version, rule, "version section comes after the rule")
	assert.Less(t, version, unreleased, "newest release reads before the template sections")
}

func TestAddEntryGroupsByCategory(t *testing.T) {
	docs := store.NewMemoryStore()
	agent := NewChangelogAgent(docs)

	err := agent.AddEntry(context.Background(), "prod-1", "Acme", "2.0.0", []Change{
		{Category: "Added", Description: "Dark mode"},
		{Category: "Fixed", Description: "Login loop"},
		{Category: "Added", Description: "CSV export"},
		{Description: "Bumped dependencies"},
	})
	require.NoError(t, err)

	doc, err := docs.FindChangelog(context.Background(), "prod-1")
	require.NoError(t, err)

	added := strings.Index(doc.Content, "### Added\n- Dark mode\n- CSV export")
	assert.GreaterOrEqual(t, added, 0, "same-category changes share one heading")
	assert.Contains(t, doc.Content, "### Changed\n- Bumped dependencies")
}

func TestAddEntryEmptyIsNoop(t *testing.T) {
	docs := store.NewMemoryStore()
	agent := NewChangelogAgent(docs)

	require.NoError(t, agent.AddEntry(context.Background(), "prod-1", "Acme", "", nil))

	_, err := docs.FindChangelog(context.Background(), "prod-1")
	assert.ErrorIs(t, err, store.ErrNotFound, "no changes means no changelog gets created")
}

func TestInsertUnreleasedWithoutHeading(t *testing.T) {
	content := "# Changelog\n\nHand-written notes.\n"
	out := insertUnreleased(content, "### Added\n- Thing\n")
	assert.Contains(t, out, "## [Unreleased]")
	assert.Contains(t, out, "- Thing")
}
