package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANALYZER_TOKEN_BUDGET", "")
	t.Setenv("BLOB_MINIO_ENDPOINT", "")
	t.Setenv("BLOB_S3_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Zero(t, cfg.TokenBudget)
	assert.False(t, cfg.Blob.Enabled)
	assert.Equal(t, "docsmith-docs", cfg.Blob.Bucket)
}

func TestProviderFallsBackToConfiguredKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestProviderExplicitWins(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestBlobConfigLocal(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("BLOB_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ROOT_USER", "minioadmin")
	t.Setenv("BLOB_S3_ACCESS_KEY", "")
	t.Setenv("BLOB_S3_SECRET_KEY", "")
	t.Setenv("MINIO_ROOT_PASSWORD", "miniosecret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Blob.Enabled)
	assert.Equal(t, "minio:9000", cfg.Blob.Endpoint)
	assert.Equal(t, "minioadmin", cfg.Blob.AccessKey)
	assert.False(t, cfg.Blob.UseSSL, "local minio runs without TLS")
}

func TestTokenBudgetParsing(t *testing.T) {
	t.Setenv("ANALYZER_TOKEN_BUDGET", "250000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250000, cfg.TokenBudget)

	t.Setenv("ANALYZER_TOKEN_BUDGET", "not-a-number")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.TokenBudget)
}
