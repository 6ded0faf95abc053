package analyzer

import (
	"regexp"
	"strings"
)

const maxModelFields = 10

type modelPattern struct {
	kind string
	re   *regexp.Regexp
}

// Order matters: a SQLModel class must not be double-counted by the
// looser patterns further down.
var modelPatterns = []modelPattern{
	{"sqlmodel", regexp.MustCompile(`class\s+(\w+)\s*\([^)]*SQLModel[^)]*\)\s*:`)},
	{"pydantic", regexp.MustCompile(`class\s+(\w+)\s*\([^)]*BaseModel[^)]*\)\s*:`)},
	{"sqlalchemy", regexp.MustCompile(`class\s+(\w+)\s*\(\s*Base\s*[,)][^)]*\)\s*:`)},
	{"typescript", regexp.MustCompile(`(?:interface|type)\s+(\w+)\s*(?:extends\s+\w+\s*)?\{`)},
	{"prisma", regexp.MustCompile(`model\s+(\w+)\s*\{`)},
}

var (
	pythonFieldRe = regexp.MustCompile(`(?m)^\s+(\w+)\s*:`)
	tsFieldRe     = regexp.MustCompile(`(?m)^\s+(\w+)\s*[?:]`)
	prismaFieldRe = regexp.MustCompile(`(?m)^\s+(\w+)\s+\w+`)
)

// ExtractModels finds data model definitions in one source file.
func ExtractModels(filePath, content string) []ModelInfo {
	var out []ModelInfo
	seen := map[string]bool{}

	for _, mp := range modelPatterns {
		if !kindAppliesTo(mp.kind, filePath) {
			continue
		}
		for _, loc := range mp.re.FindAllStringSubmatchIndex(content, -1) {
			name := content[loc[2]:loc[3]]
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, ModelInfo{
				Name:   name,
				File:   filePath,
				Kind:   mp.kind,
				Fields: extractFields(mp.kind, content, loc[0]),
			})
		}
	}
	return out
}

func kindAppliesTo(kind, filePath string) bool {
	switch kind {
	case "sqlmodel", "pydantic", "sqlalchemy":
		return strings.HasSuffix(filePath, ".py")
	case "typescript":
		return strings.HasSuffix(filePath, ".ts") || strings.HasSuffix(filePath, ".tsx")
	case "prisma":
		return strings.HasSuffix(filePath, ".prisma")
	}
	return false
}

func extractFields(kind, content string, start int) []string {
	switch kind {
	case "sqlmodel", "pydantic", "sqlalchemy":
		return pythonFields(content, start)
	case "typescript":
		return bodyFields(tsFieldRe, tsBody(content, start))
	case "prisma":
		return bodyFields(prismaFieldRe, braceBody(content, start))
	}
	return nil
}

// pythonFields reads from the class line up to the next top-level class
// or def, capped at 500 chars.
func pythonFields(content string, start int) []string {
	end := len(content)
	if start+500 < end {
		end = start + 500
	}
	body := content[start:end]
	if i := strings.Index(body[1:], "\nclass "); i >= 0 {
		body = body[:i+1]
	}
	if i := strings.Index(body, "\ndef "); i >= 0 {
		body = body[:i]
	}

	var fields []string
	for _, m := range pythonFieldRe.FindAllStringSubmatch(body, -1) {
		if strings.HasPrefix(m[1], "_") {
			continue
		}
		fields = append(fields, m[1])
		if len(fields) >= maxModelFields {
			break
		}
	}
	return fields
}

// tsBody returns the brace-delimited body of a TypeScript interface or
// type literal, scanning at most 1000 chars past the match.
func tsBody(content string, start int) string {
	limit := len(content)
	if start+1000 < limit {
		limit = start + 1000
	}
	open := strings.Index(content[start:limit], "{")
	if open < 0 {
		return ""
	}
	open += start

	depth := 0
	for i := open; i < limit; i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return content[open+1 : limit]
}

// braceBody returns the first {...} block after start.
func braceBody(content string, start int) string {
	open := strings.Index(content[start:], "{")
	if open < 0 {
		return ""
	}
	open += start
	close := strings.Index(content[open:], "}")
	if close < 0 {
		return content[open+1:]
	}
	return content[open+1 : open+close]
}

func bodyFields(re *regexp.Regexp, body string) []string {
	var fields []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		fields = append(fields, m[1])
		if len(fields) >= maxModelFields {
			break
		}
	}
	return fields
}
