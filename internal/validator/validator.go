// Package validator cross-checks generated markdown against what the
// analyzer actually found, flagging endpoints, models, and technologies
// the model may have invented.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"docsmith/internal/analyzer"
)

type Warning struct {
	ClaimType string // endpoint, model, technology
	Claim     string
	Message   string
	Severity  string // low, medium, high
}

type Result struct {
	Warnings        []Warning
	ClaimsChecked   int
	ClaimsVerified  int
	ConfidenceScore float64
}

// Claims are the verifiable statements pulled out of one document.
type Claims struct {
	Endpoints    []string
	Models       []string
	Technologies []string
}

var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s+(/[\w/{}\-\.]+)`),
	regexp.MustCompile(`(?i)(?:endpoint|route|path)s?\s*[:\s]+` + "[`'\"]?" + `(/api/[\w/{}\-\.]+)`),
	regexp.MustCompile("`" + `(GET|POST|PUT|PATCH|DELETE)\s+(/[\w/{}\-\.]+)` + "`"),
	regexp.MustCompile("`" + `(/api/[\w/{}\-\.]+)` + "`"),
}

// A model claim is strict PascalCase with at least two words (or a
// recognised suffix), so acronym-bearing tokens like HTTPServer never
// count as claims.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\s+(?:model|entity|schema|table|class)`),
	regexp.MustCompile(`(?:model|entity|schema|table|class)\s+(?:called\s+)?` + "[`'\"]?" + `([A-Z][a-z]+(?:[A-Z][a-z]+)*)`),
	regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)*(?:Model|Schema|Entity|Table|Record))\b`),
	regexp.MustCompile("`" + `([A-Z][a-z]+(?:[A-Z][a-z]+)+)` + "`"),
}

// Common acronyms and product names that look like PascalCase model
// names but never are.
var modelExclusions = map[string]bool{
	"README": true, "JSON": true, "API": true, "URL": true, "HTTP": true,
	"HTML": true, "CSS": true, "SQL": true, "REST": true, "OAuth": true,
	"JWT": true, "UUID": true, "CLI": true, "SDK": true,
	"TypeScript": true, "JavaScript": true, "Python": true,
	"FastAPI": true, "NextJS": true, "PostgreSQL": true,
	"GitHub": true, "GitLab": true,
}

// The technology vocabulary claims are extracted against. Kept
// lowercase; content is lowercased before matching.
var knownTechnologies = []string{
	// frameworks and libraries
	"fastapi", "django", "flask", "sqlalchemy", "sqlmodel", "pydantic",
	"celery", "pytest", "alembic", "uvicorn",
	"react", "next.js", "nextjs", "vue", "angular", "express",
	"nest.js", "nestjs", "prisma", "drizzle", "tailwind", "tailwindcss",
	"spring", "rails", "laravel", "gin", "echo", "actix",
	// databases
	"postgresql", "postgres", "mysql", "mariadb", "sqlite", "mongodb",
	"redis", "elasticsearch", "dynamodb", "cassandra", "supabase",
	// infrastructure and services
	"docker", "kubernetes", "k8s", "aws", "gcp", "azure", "vercel",
	"fly.io", "heroku", "nginx", "cloudflare", "stripe", "twilio",
	"sendgrid", "auth0", "firebase", "sentry",
}

var techPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(knownTechnologies))
	for _, name := range knownTechnologies {
		out[name] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(name)) + `\b`)
	}
	return out
}()

// Validator holds the known-claim sets derived from one analysis.
type Validator struct {
	knownEndpoints map[string]bool
	knownModels    map[string]bool
	knownTech      map[string]bool
}

func New(ctx *analyzer.Context) *Validator {
	v := &Validator{
		knownEndpoints: map[string]bool{},
		knownModels:    map[string]bool{},
		knownTech:      map[string]bool{},
	}
	for _, e := range ctx.AllEndpoints {
		p := normalizePath(e.Path)
		v.knownEndpoints[p] = true
		// Versioned routes also answer for their unversioned form.
		v.knownEndpoints[strings.Replace(p, "/v1/", "/", 1)] = true
		v.knownEndpoints[strings.Replace(p, "/v2/", "/", 1)] = true
	}
	for _, m := range ctx.AllModels {
		v.knownModels[strings.ToLower(m.Name)] = true
	}
	for _, set := range [][]string{
		ctx.CombinedStack.Languages,
		ctx.CombinedStack.Frameworks,
		ctx.CombinedStack.Databases,
		ctx.CombinedStack.Infrastructure,
		ctx.CombinedStack.PackageManagers,
	} {
		for _, t := range set {
			v.knownTech[strings.ToLower(t)] = true
		}
	}
	return v
}

// KnownEndpoints returns the sorted normalized endpoint set, for
// building correction prompts.
func (v *Validator) KnownEndpoints() []string { return sortedKeys(v.knownEndpoints) }

// KnownModels returns the sorted lowercased model name set.
func (v *Validator) KnownModels() []string { return sortedKeys(v.knownModels) }

// KnownTechnologies returns the sorted detected technology set.
func (v *Validator) KnownTechnologies() []string { return sortedKeys(v.knownTech) }

// ExtractClaims pulls verifiable endpoint, model, and technology claims
// out of markdown.
func ExtractClaims(content string) Claims {
	endpoints := map[string]bool{}
	for _, re := range endpointPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			p := lastPathGroup(m)
			if p == "" {
				continue
			}
			p = normalizePath(p)
			if len(p) <= 3 || p == "/api" || p == "/v1" || p == "/v2" {
				continue
			}
			endpoints[p] = true
		}
	}

	models := map[string]bool{}
	for _, re := range modelPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			name := m[1]
			if name == "" || len(name) <= 3 || modelExclusions[name] {
				continue
			}
			models[name] = true
		}
	}

	lower := strings.ToLower(content)
	tech := map[string]bool{}
	for name, re := range techPatterns {
		if re.MatchString(lower) {
			tech[name] = true
		}
	}

	return Claims{
		Endpoints:    sortedKeys(endpoints),
		Models:       sortedKeys(models),
		Technologies: sortedKeys(tech),
	}
}

// Validate checks every extracted claim against the known sets and
// scores the document.
func (v *Validator) Validate(content string) Result {
	claims := ExtractClaims(content)
	res := Result{}

	for _, ep := range claims.Endpoints {
		res.ClaimsChecked++
		if v.endpointExists(ep) {
			res.ClaimsVerified++
			continue
		}
		res.Warnings = append(res.Warnings, Warning{
			ClaimType: "endpoint",
			Claim:     ep,
			Message:   fmt.Sprintf("endpoint %q not found in analyzed code", ep),
			Severity:  "high",
		})
	}

	for _, model := range claims.Models {
		res.ClaimsChecked++
		if v.modelExists(model) {
			res.ClaimsVerified++
			continue
		}
		res.Warnings = append(res.Warnings, Warning{
			ClaimType: "model",
			Claim:     model,
			Message:   fmt.Sprintf("data model %q not found in analyzed code", model),
			Severity:  "high",
		})
	}

	for _, tech := range claims.Technologies {
		res.ClaimsChecked++
		if v.knownTech[strings.ToLower(tech)] {
			res.ClaimsVerified++
			continue
		}
		res.Warnings = append(res.Warnings, Warning{
			ClaimType: "technology",
			Claim:     tech,
			Message:   fmt.Sprintf("%s mentioned but not detected in the stack", tech),
			Severity:  "medium",
		})
	}

	if res.ClaimsChecked == 0 {
		res.ConfidenceScore = 1.0
	} else {
		res.ConfidenceScore = float64(res.ClaimsVerified) / float64(res.ClaimsChecked)
	}
	return res
}

// HighSeverityCount counts the warnings severe enough to trigger a
// correction pass.
func HighSeverityCount(res Result) int {
	n := 0
	for _, w := range res.Warnings {
		if w.Severity == "high" {
			n++
		}
	}
	return n
}

func (v *Validator) endpointExists(ep string) bool {
	if v.knownEndpoints[ep] {
		return true
	}
	norm := collapsePlaceholders(ep)
	for known := range v.knownEndpoints {
		if collapsePlaceholders(known) == norm {
			return true
		}
		// Prefix either way tolerates nested routes. Deliberately
		// permissive: short claimed paths verify against any longer
		// known route that extends them.
		if strings.HasPrefix(known, ep) || strings.HasPrefix(ep, known) {
			return true
		}
	}
	return false
}

func (v *Validator) modelExists(name string) bool {
	lower := strings.ToLower(name)
	if v.knownModels[lower] {
		return true
	}
	for known := range v.knownModels {
		if strings.HasPrefix(known, lower) || strings.HasPrefix(lower, known) {
			return true
		}
	}
	return false
}

// lastPathGroup returns the last capture group that looks like a path.
func lastPathGroup(m []string) string {
	for i := len(m) - 1; i >= 1; i-- {
		if strings.HasPrefix(m[i], "/") {
			return m[i]
		}
	}
	return ""
}

func normalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

var placeholderRe = regexp.MustCompile(`\{[^}]*\}`)

func collapsePlaceholders(p string) string {
	return placeholderRe.ReplaceAllString(p, "{}")
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
