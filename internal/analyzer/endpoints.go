package analyzer

import (
	"regexp"
	"strings"
)

var (
	fastapiRouteRe = regexp.MustCompile(`(?i)@(?:app|router)\.(get|post|put|delete|patch)\s*\(\s*["']([^"']+)["']`)
	flaskRouteRe   = regexp.MustCompile(`(?i)@(?:app|bp|blueprint)\.route\s*\(\s*["']([^"']+)["'].*methods\s*=\s*\[([^\]]+)\]`)
	expressRouteRe = regexp.MustCompile(`(?i)(?:app|router)\.(get|post|put|delete|patch)\s*\(\s*["']([^"']+)["']`)
	nextRouteRe    = regexp.MustCompile(`(?i)export\s+(?:async\s+)?function\s+(GET|POST|PUT|DELETE|PATCH)`)

	pyHandlerRe = regexp.MustCompile(`(?:async\s+)?def\s+(\w+)`)
)

// ExtractEndpoints finds HTTP routes in one source file. Python files
// are scanned for FastAPI and Flask decorators, JS/TS files for Express
// registrations and Next.js route handlers.
func ExtractEndpoints(filePath, content string) []EndpointInfo {
	var out []EndpointInfo

	switch {
	case strings.HasSuffix(filePath, ".py"):
		for _, loc := range fastapiRouteRe.FindAllStringSubmatchIndex(content, -1) {
			out = append(out, EndpointInfo{
				Method:  strings.ToUpper(content[loc[2]:loc[3]]),
				Path:    content[loc[4]:loc[5]],
				File:    filePath,
				Handler: handlerAfter(content, loc[1]),
			})
		}
		for _, loc := range flaskRouteRe.FindAllStringSubmatchIndex(content, -1) {
			path := content[loc[2]:loc[3]]
			handler := handlerAfter(content, loc[1])
			for _, method := range splitFlaskMethods(content[loc[4]:loc[5]]) {
				out = append(out, EndpointInfo{
					Method:  method,
					Path:    path,
					File:    filePath,
					Handler: handler,
				})
			}
		}

	case isJSFile(filePath):
		for _, m := range expressRouteRe.FindAllStringSubmatch(content, -1) {
			out = append(out, EndpointInfo{
				Method: strings.ToUpper(m[1]),
				Path:   m[2],
				File:   filePath,
			})
		}
		for _, m := range nextRouteRe.FindAllStringSubmatch(content, -1) {
			out = append(out, EndpointInfo{
				Method: strings.ToUpper(m[1]),
				Path:   "/",
				File:   filePath,
			})
		}
	}
	return out
}

func isJSFile(path string) bool {
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// handlerAfter names the function a decorator applies to, scanning the
// 200 chars following the decorator.
func handlerAfter(content string, from int) string {
	end := len(content)
	if from+200 < end {
		end = from + 200
	}
	if m := pyHandlerRe.FindStringSubmatch(content[from:end]); m != nil {
		return m[1]
	}
	return ""
}

// splitFlaskMethods parses the inside of methods=["GET", "POST"].
func splitFlaskMethods(raw string) []string {
	var methods []string
	for _, part := range strings.Split(raw, ",") {
		m := strings.Trim(strings.TrimSpace(part), `"'`)
		if m != "" {
			methods = append(methods, strings.ToUpper(m))
		}
	}
	return methods
}
