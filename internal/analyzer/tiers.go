package analyzer

// ShouldSkip reports whether a path is build output, lockfile noise, or
// otherwise never worth fetching. Skip rules win over tier rules.
func ShouldSkip(path string) bool {
	for _, re := range skipPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// FileTier classifies a path: 1 for manifests and docs, 2 for
// structural source, 3 for tests and helpers, 0 for everything else.
// The highest-priority tier that matches wins.
func FileTier(path string) int {
	if ShouldSkip(path) {
		return 0
	}
	for _, re := range tier1Patterns {
		if re.MatchString(path) {
			return 1
		}
	}
	for _, re := range tier2Patterns {
		if re.MatchString(path) {
			return 2
		}
	}
	for _, re := range tier3Patterns {
		if re.MatchString(path) {
			return 3
		}
	}
	return 0
}

// TokenEstimate approximates the token cost of a blob of text.
func TokenEstimate(content string) int {
	return len(content) / CharsPerToken
}
