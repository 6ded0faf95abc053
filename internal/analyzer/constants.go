package analyzer

import "regexp"

const (
	// Rough heuristic that avoids shipping a tokenizer.
	CharsPerToken = 4

	DefaultTokenBudget = 100_000
	MinRepoTokenBudget = 20_000
	MaxFileSize        = 100_000

	// Minimum token headroom assumed per tier-2 file when deciding how
	// many of them are worth fetching at all.
	tier2CostEstimate = 500
)

// anchored compiles a pattern that must match from the start of the
// path, case-insensitively.
func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + pattern + `)`)
}

// Tier 1: project manifests and top-level docs. Always fetched.
var tier1Patterns = []*regexp.Regexp{
	anchored(`README\.md$`),
	anchored(`README$`),
	anchored(`readme\.md$`),
	anchored(`CLAUDE\.md$`),
	anchored(`claude\.md$`),
	anchored(`CONTRIBUTING\.md$`),
	anchored(`docs/.*\.md$`),
	anchored(`pyproject\.toml$`),
	anchored(`setup\.py$`),
	anchored(`requirements\.txt$`),
	anchored(`package\.json$`),
	anchored(`tsconfig\.json$`),
	anchored(`Cargo\.toml$`),
	anchored(`go\.mod$`),
	anchored(`pom\.xml$`),
	anchored(`build\.gradle(\.kts)?$`),
	anchored(`docker-compose\.ya?ml$`),
	anchored(`Dockerfile$`),
	anchored(`fly\.toml$`),
	anchored(`vercel\.json$`),
	anchored(`\.env\.example$`),
}

// Tier 2: source files that usually define the shape of the system.
// Fetched while the token budget holds.
var tier2Patterns = []*regexp.Regexp{
	anchored(`.*models?\.py$`),
	anchored(`.*schemas?\.py$`),
	anchored(`.*routes?\.py$`),
	anchored(`.*api\.py$`),
	anchored(`.*endpoints?\.py$`),
	anchored(`.*views?\.py$`),
	anchored(`app\.py$`),
	anchored(`main\.py$`),
	anchored(`server\.py$`),
	anchored(`.*/app\.py$`),
	anchored(`.*/main\.py$`),
	anchored(`.*models?\.tsx?$`),
	anchored(`.*types?\.tsx?$`),
	anchored(`.*schemas?\.tsx?$`),
	anchored(`.*/api/.*\.tsx?$`),
	anchored(`.*/routes?/.*\.tsx?$`),
	anchored(`.*pages?/.*\.tsx?$`),
	anchored(`.*/app/.*page\.tsx?$`),
	anchored(`.*/app/.*route\.tsx?$`),
	anchored(`.*/domain/.*\.py$`),
	anchored(`.*/services?/.*\.py$`),
	anchored(`.*/core/.*\.py$`),
	anchored(`.*migrations?/.*\.py$`),
	anchored(`.*schema\.prisma$`),
}

// Tier 3: tests and helpers. Lowest priority.
var tier3Patterns = []*regexp.Regexp{
	anchored(`.*test.*\.py$`),
	anchored(`.*\.test\.tsx?$`),
	anchored(`.*\.spec\.tsx?$`),
	anchored(`.*__tests__/.*`),
	anchored(`.*utils?\.py$`),
	anchored(`.*helpers?\.py$`),
	anchored(`.*utils?\.tsx?$`),
}

// Checked before any tier.
var skipPatterns = []*regexp.Regexp{
	anchored(`.*\.min\.js$`),
	anchored(`.*\.min\.css$`),
	anchored(`.*\.map$`),
	anchored(`node_modules/.*`),
	anchored(`\.git/.*`),
	anchored(`__pycache__/.*`),
	anchored(`.*\.pyc$`),
	anchored(`dist/.*`),
	anchored(`build/.*`),
	anchored(`\.next/.*`),
	anchored(`coverage/.*`),
	anchored(`.*\.lock$`),
	anchored(`package-lock\.json$`),
	anchored(`yarn\.lock$`),
	anchored(`pnpm-lock\.yaml$`),
}

// indicator is a named technology with the content patterns that reveal it.
type indicator struct {
	name     string
	patterns []*regexp.Regexp
}

func search(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var frameworkIndicators = []indicator{
	{"FastAPI", []*regexp.Regexp{search(`from fastapi`), search(`import fastapi`), search(`FastAPI\(`)}},
	{"Django", []*regexp.Regexp{search(`from django`), search(`import django`), search(`INSTALLED_APPS`)}},
	{"Flask", []*regexp.Regexp{search(`from flask`), search(`import flask`), search(`Flask\(`)}},
	{"SQLAlchemy", []*regexp.Regexp{search(`from sqlalchemy`), search(`import sqlalchemy`)}},
	{"SQLModel", []*regexp.Regexp{search(`from sqlmodel`), search(`import sqlmodel`), search(`SQLModel`)}},
	{"Pydantic", []*regexp.Regexp{search(`from pydantic`), search(`BaseModel`)}},
	{"Next.js", []*regexp.Regexp{search(`"next":`), search(`next/`), search(`getServerSideProps`), search(`getStaticProps`)}},
	{"React", []*regexp.Regexp{search(`"react":`), search(`from 'react'`), search(`from "react"`), search(`useState`), search(`useEffect`)}},
	{"Express", []*regexp.Regexp{search(`"express":`), search(`from 'express'`), search(`express\(\)`)}},
	{"NestJS", []*regexp.Regexp{search(`"@nestjs/`), search(`@Controller`), search(`@Injectable`)}},
	{"Vue", []*regexp.Regexp{search(`"vue":`), search(`createApp`), search(`defineComponent`)}},
	{"Svelte", []*regexp.Regexp{search(`"svelte":`), search(`<script>`), search(`\$:`)}},
	{"Prisma", []*regexp.Regexp{search(`schema\.prisma`), search(`@prisma/client`)}},
	{"TypeORM", []*regexp.Regexp{search(`"typeorm":`), search(`@Entity`), search(`@Column`)}},
	{"Drizzle", []*regexp.Regexp{search(`"drizzle-orm":`), search(`drizzle\(`)}},
}

var databaseIndicators = []indicator{
	{"PostgreSQL", []*regexp.Regexp{search(`postgresql://`), search(`postgres://`), search(`"pg":`), search(`asyncpg`)}},
	{"MySQL", []*regexp.Regexp{search(`mysql://`), search(`"mysql":`), search(`pymysql`)}},
	{"SQLite", []*regexp.Regexp{search(`sqlite://`), search(`sqlite3`)}},
	{"MongoDB", []*regexp.Regexp{search(`mongodb://`), search(`"mongodb":`), search(`pymongo`)}},
	{"Redis", []*regexp.Regexp{search(`redis://`), search(`"redis":`), search(`"ioredis":`)}},
	{"Supabase", []*regexp.Regexp{search(`supabase`), search(`@supabase/`)}},
}

// Matched against file paths as well as contents.
var infrastructureIndicators = []indicator{
	{"Docker", []*regexp.Regexp{search(`Dockerfile`), search(`docker-compose`)}},
	{"Kubernetes", []*regexp.Regexp{search(`\.ya?ml$.*kind:\s*(Deployment|Service|Pod)`)}},
	{"Fly.io", []*regexp.Regexp{search(`fly\.toml`)}},
	{"Vercel", []*regexp.Regexp{search(`vercel\.json`), search(`"@vercel/`)}},
	{"AWS", []*regexp.Regexp{search(`aws-sdk`), search(`boto3`), search(`serverless\.ya?ml`)}},
	{"GCP", []*regexp.Regexp{search(`google-cloud`), search(`@google-cloud/`)}},
}

var extensionLanguages = map[string]string{
	".py":  "Python",
	".ts":  "TypeScript",
	".tsx": "TypeScript",
	".js":  "JavaScript",
	".jsx": "JavaScript",
	".rs":  "Rust",
	".go":  "Go",
}
