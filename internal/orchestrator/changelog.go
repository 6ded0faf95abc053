package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsmith/internal/store"
)

// Change is one changelog line, grouped under its category heading.
type Change struct {
	Category    string // Added, Changed, Fixed
	Description string
}

// ChangelogAgent keeps each product's changelog in Keep a Changelog
// shape. It is deliberately LLM-free: entries are appended
// mechanically so the changelog stays trustworthy.
type ChangelogAgent struct {
	docs store.DocumentStore
}

func NewChangelogAgent(docs store.DocumentStore) *ChangelogAgent {
	return &ChangelogAgent{docs: docs}
}

func changelogTemplate(productName string) string {
	return fmt.Sprintf(`# Changelog

All notable changes to %s will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.0.0/).

---

## [Unreleased]

### Added

### Changed

### Fixed
`, productName)
}

// Ensure returns the product's changelog, creating one from the
// template when none exists.
func (a *ChangelogAgent) Ensure(ctx context.Context, productID, productName string) (*store.Document, error) {
	doc, err := a.docs.FindChangelog(ctx, productID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	doc = &store.Document{
		ID:        uuid.NewString(),
		ProductID: productID,
		Title:     "Changelog",
		Content:   changelogTemplate(productName),
		Type:      "changelog",
	}
	if err := a.docs.Put(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// AddEntry records changes under a released version heading, or under
// [Unreleased] when version is empty.
func (a *ChangelogAgent) AddEntry(ctx context.Context, productID, productName, version string, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	doc, err := a.Ensure(ctx, productID, productName)
	if err != nil {
		return err
	}

	entry := formatEntry(changes)
	if version != "" {
		doc.Content = insertVersioned(doc.Content, version, entry)
	} else {
		doc.Content = insertUnreleased(doc.Content, entry)
	}
	return a.docs.Put(ctx, doc)
}

// formatEntry groups changes by category, preserving first-seen
// category order.
func formatEntry(changes []Change) string {
	var order []string
	grouped := map[string][]string{}
	for _, c := range changes {
		cat := c.Category
		if cat == "" {
			cat = "Changed"
		}
		if _, seen := grouped[cat]; !seen {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], c.Description)
	}

	var b strings.Builder
	for _, cat := range order {
		fmt.Fprintf(&b, "### %s\n", cat)
		for _, desc := range grouped[cat] {
			fmt.Fprintf(&b, "- %s\n", desc)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// insertVersioned places a dated version section right after the first
// horizontal rule, so newest releases read first.
func insertVersioned(content, version, entry string) string {
	heading := fmt.Sprintf("\n## [%s] - %s\n", version, time.Now().Format("2006-01-02"))
	if i := strings.Index(content, "\n---\n"); i >= 0 {
		insertAt := i + len("\n---\n")
		return content[:insertAt] + heading + entry + content[insertAt:]
	}
	return content + heading + entry
}

// insertUnreleased appends the entry inside the [Unreleased] section,
// before the next version heading or rule.
func insertUnreleased(content, entry string) string {
	start := strings.Index(content, "## [Unreleased]")
	if start < 0 {
		return content + "\n## [Unreleased]\n" + entry
	}
	rest := content[start:]

	end := len(rest)
	for _, marker := range []string{"\n## [", "\n---\n"} {
		if i := strings.Index(rest[1:], marker); i >= 0 && i+1 < end {
			end = i + 1
		}
	}
	insertAt := start + end
	return content[:insertAt] + "\n" + entry + content[insertAt:]
}
