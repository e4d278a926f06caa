package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FORMHUB_CONFIG_PATH", "LOG_MODE", "PORT", "FORMHUB_HTTP_ADDR", "FORMHUB_ALLOWED_ORIGINS",
	"GEMINI_API_KEY", "VITE_GEMINI_API_KEY", "FORMHUB_ENGINE", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"GEMINI_TIMEOUT", "GEMINI_REQUESTS_PER_MINUTE", "FORMHUB_RATE_LIMIT", "FORMHUB_RATE_WINDOW",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "OTEL_ENABLED", "OTEL_SERVICE_NAME",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLER_RATIO", "OTEL_EXPORTER_OTLP_HEADERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWithoutCredential(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EngineGeminiHTTP, cfg.Engine.Type)
	assert.Equal(t, DefaultModel, cfg.Engine.Model)
	assert.Equal(t, DefaultBaseURL, cfg.Engine.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout.Duration)
	assert.Empty(t, cfg.Engine.APIKey, "missing credential must not fail start-up")
	assert.Equal(t, []string{"No", "false", "لا"}, cfg.Prompt.Sentinels)
	assert.Equal(t, "id_", cfg.Prompt.ReservedPrefix)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadCredentialFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_GEMINI_API_KEY", "vite-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "vite-key", cfg.Engine.APIKey)

	t.Setenv("GEMINI_API_KEY", " server-key ")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "server-key", cfg.Engine.APIKey)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
env: production
http:
  addr: ":9090"
  allowed_origins: ["https://forms.example.org"]
engine:
  type: genai
  model: gemini-2.0-flash
  timeout: 12s
  requests_per_minute: 60
rate_limit:
  limit: 10
  window: 1m
  redis_addr: redis:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://forms.example.org"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, EngineGenAI, cfg.Engine.Type)
	assert.Equal(t, "gemini-2.0-flash", cfg.Engine.Model)
	assert.Equal(t, 12*time.Second, cfg.Engine.Timeout.Duration)
	assert.Equal(t, 60, cfg.Engine.RequestsPerMinute)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout.Duration, "unset fields keep defaults")
}

func TestLoadJSONFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"engine": {"type": "mock", "timeout": 5000000000, "base_url": "http://upstream/v1beta/"},
		"prompt": {"sentinels": ["No"]}
	}`)
	t.Setenv("FORMHUB_CONFIG_PATH", path)
	t.Setenv("PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EngineMock, cfg.Engine.Type)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout.Duration)
	assert.Equal(t, "http://upstream/v1beta", cfg.Engine.BaseURL)
	assert.Equal(t, []string{"No"}, cfg.Prompt.Sentinels)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORMHUB_ENGINE", "carrier-pigeon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestLoadReportsBadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"engine": {"timeout": "soon"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadOTLPHeadersFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "tracing:\n  headers:\n    x-file: kept\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x-file": "kept"}, cfg.Tracing.Headers, "unset env keeps file headers")

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer abc, x-tenant=formhub,broken")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"authorization": "Bearer abc", "x-tenant": "formhub"}, cfg.Tracing.Headers)
}
