// Package config loads runtime configuration from the environment,
// with .env support for local development.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Provider string // "anthropic" or "gemini"

	AnthropicAPIKey string
	GeminiAPIKey    string
	GitHubToken     string

	DatabaseURL string
	TokenBudget int // 0 means the analyzer default

	Blob BlobConfig
}

type BlobConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Env:             env,
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GitHubToken:     strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TokenBudget:     parseInt(os.Getenv("ANALYZER_TOKEN_BUDGET")),
		Blob:            loadBlobConfig(env),
	}
	cfg.Provider = resolveProvider(cfg)
	return cfg, nil
}

// resolveProvider honors an explicit LLM_PROVIDER and otherwise picks
// whichever API key is configured, preferring Anthropic.
func resolveProvider(cfg *Config) string {
	if p := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))); p != "" {
		return p
	}
	if cfg.AnthropicAPIKey != "" {
		return "anthropic"
	}
	if cfg.GeminiAPIKey != "" {
		return "gemini"
	}
	return "anthropic"
}

func loadBlobConfig(env string) BlobConfig {
	endpoint := resolveBlobEndpoint(env)
	return BlobConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_BUCKET")), "docsmith-docs"),
		UseSSL:    resolveBlobUseSSL(env),
	}
}

func resolveBlobEndpoint(env string) string {
	if strings.EqualFold(env, "local") {
		return strings.TrimSpace(os.Getenv("BLOB_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("BLOB_S3_ENDPOINT"))
}

func resolveBlobUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("BLOB_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func parseInt(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
