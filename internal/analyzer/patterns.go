package analyzer

import "strings"

// DetectPatterns names architectural conventions visible from one
// repository's directory layout and detected stack. Monorepo and
// frontend/backend checks require the directory name to be present
// verbatim; the layered-architecture and domain checks accept any
// directory path containing the marker.
func DetectPatterns(directories []string, stack TechStack) []string {
	var patterns []string

	dirSet := make(map[string]bool, len(directories))
	for _, d := range directories {
		dirSet[d] = true
	}
	hasDir := func(names ...string) bool {
		for _, n := range names {
			if dirSet[n] {
				return true
			}
		}
		return false
	}
	hasDirContaining := func(subs ...string) bool {
		for _, d := range directories {
			for _, s := range subs {
				if strings.Contains(d, s) {
					return true
				}
			}
		}
		return false
	}

	if hasDir("packages", "apps", "libs") {
		patterns = append(patterns, "Monorepo")
	}
	if hasDir("frontend", "client", "web", "app") && hasDir("backend", "server", "api") {
		patterns = append(patterns, "Frontend/Backend Split")
	}
	if contains(stack.Frameworks, "FastAPI") || contains(stack.Frameworks, "Express") {
		patterns = append(patterns, "REST API")
	}

	serviceDirs := 0
	for _, d := range directories {
		if strings.Contains(strings.ToLower(d), "service") {
			serviceDirs++
		}
	}
	if serviceDirs >= 3 {
		patterns = append(patterns, "Microservices")
	}

	if hasDirContaining("models", "model") && (hasDirContaining("views", "templates") || hasDirContaining("controllers", "routes")) {
		patterns = append(patterns, "MVC/Layered Architecture")
	}
	if hasDirContaining("domain") {
		patterns = append(patterns, "Domain-Driven Design")
	}
	return patterns
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
