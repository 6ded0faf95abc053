package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint hashes the stable shape of an analysis: which repos, how
// many files, which key files, and how many models and endpoints were
// found. File contents are excluded so cosmetic edits that change no
// key file set do not force regeneration. Repo order does not matter.
func Fingerprint(c *Context) string {
	type repoShape struct {
		FullName   string `json:"full_name"`
		Branch     string `json:"branch"`
		TotalFiles int    `json:"total_files"`
	}

	repos := make([]repoShape, 0, len(c.Repositories))
	for _, r := range c.Repositories {
		repos = append(repos, repoShape{FullName: r.FullName, Branch: r.Branch, TotalFiles: r.TotalFiles})
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].FullName < repos[j].FullName })

	keyFiles := make([]string, 0, len(c.AllKeyFiles))
	for _, f := range c.AllKeyFiles {
		keyFiles = append(keyFiles, f.Path)
	}
	sort.Strings(keyFiles)

	patterns := append([]string(nil), c.DetectedPatterns...)
	sort.Strings(patterns)

	// Map keys marshal in sorted order, which keeps the digest stable.
	payload := map[string]any{
		"repos":          repos,
		"total_files":    c.TotalFiles,
		"total_tokens":   c.TotalTokens,
		"patterns":       patterns,
		"key_files":      keyFiles,
		"model_count":    len(c.AllModels),
		"endpoint_count": len(c.AllEndpoints),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// ShouldSkipGeneration reports whether a stored fingerprint matches the
// current one. An empty stored fingerprint never skips.
func ShouldSkipGeneration(stored, current string) bool {
	if stored == "" {
		return false
	}
	return stored == current
}
