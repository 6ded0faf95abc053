package analyzer

import (
	"path"
	"sort"
	"strings"
)

// DetectTechStack infers languages from file extensions, frameworks and
// databases from fetched file contents, and infrastructure from both
// contents and paths.
func DetectTechStack(files []string, contents map[string]string) TechStack {
	langs := map[string]bool{}
	pkgMgrs := map[string]bool{}

	for _, f := range files {
		if lang, ok := extensionLanguages[strings.ToLower(path.Ext(f))]; ok {
			langs[lang] = true
			switch lang {
			case "Python":
				pkgMgrs["pip"] = true
			case "Rust":
				pkgMgrs["cargo"] = true
			}
		}
	}

	// Manifest markers count only when the file was actually fetched.
	if _, ok := contents["package.json"]; ok {
		pkgMgrs["npm"] = true
	}
	if _, ok := contents["pyproject.toml"]; ok {
		pkgMgrs["pip"] = true
	}

	frameworks := matchIndicators(frameworkIndicators, contents, nil)
	databases := matchIndicators(databaseIndicators, contents, nil)
	infra := matchIndicators(infrastructureIndicators, contents, files)

	return TechStack{
		Languages:       sortedKeys(langs),
		Frameworks:      frameworks,
		Databases:       databases,
		Infrastructure:  infra,
		PackageManagers: sortedKeys(pkgMgrs),
	}
}

// matchIndicators returns the names whose first matching pattern hits
// any content (or any path, when paths are supplied).
func matchIndicators(indicators []indicator, contents map[string]string, paths []string) []string {
	found := map[string]bool{}
	for _, ind := range indicators {
	patterns:
		for _, re := range ind.patterns {
			for _, content := range contents {
				if re.MatchString(content) {
					found[ind.name] = true
					break patterns
				}
			}
			for _, p := range paths {
				if re.MatchString(p) {
					found[ind.name] = true
					break patterns
				}
			}
		}
	}
	return sortedKeys(found)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mergeStacks unions two stacks, keeping every slice sorted.
func mergeStacks(a, b TechStack) TechStack {
	return TechStack{
		Languages:       unionSorted(a.Languages, b.Languages),
		Frameworks:      unionSorted(a.Frameworks, b.Frameworks),
		Databases:       unionSorted(a.Databases, b.Databases),
		Infrastructure:  unionSorted(a.Infrastructure, b.Infrastructure),
		PackageManagers: unionSorted(a.PackageManagers, b.PackageManagers),
	}
}

func unionSorted(a, b []string) []string {
	set := map[string]bool{}
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	return sortedKeys(set)
}
