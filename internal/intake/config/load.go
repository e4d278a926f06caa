package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/formhub-backend/internal/platform/envutil"
	"github.com/yungbote/formhub-backend/internal/platform/tracing"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	EngineGeminiHTTP = "gemini_http"
	EngineGenAI      = "genai"
	EngineMock       = "mock"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got yaml kind %d", value.Kind)
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(value.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:8888",
				"http://127.0.0.1:5173",
				"http://127.0.0.1:8888",
			},
		},
		Engine: EngineConfig{
			Type:    EngineGeminiHTTP,
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Timeout: Duration{Duration: 30 * time.Second},
		},
		Prompt: PromptConfig{
			Sentinels:      []string{"No", "false", "لا"},
			ReservedPrefix: "id_",
		},
		RateLimit: RateLimitConfig{
			Window: Duration{Duration: time.Minute},
		},
		Tracing: TracingConfig{
			ServiceName: "formhub",
			SampleRatio: 0.1,
		},
	}
}

// Load builds the configuration from defaults, an optional config file and the environment,
// in that order. An empty path falls back to FORMHUB_CONFIG_PATH and then ./config/config.{json,yaml,yml}.
// A missing API key is not an error here: the service still starts and answers story requests
// with a configuration error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(path)
	if cfgPath == "" {
		cfgPath = strings.TrimSpace(os.Getenv("FORMHUB_CONFIG_PATH"))
	}
	if cfgPath == "" {
		cfgPath = findDefaultFile()
	}
	if cfgPath != "" {
		if err := loadFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefaultFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	if v := envutil.String("PORT", ""); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	cfg.HTTP.Addr = envutil.String("FORMHUB_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowedOrigins = envutil.List("FORMHUB_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)

	// The browser build historically exposed the key as VITE_GEMINI_API_KEY; accept both.
	cfg.Engine.APIKey = envutil.String("GEMINI_API_KEY", envutil.String("VITE_GEMINI_API_KEY", cfg.Engine.APIKey))
	cfg.Engine.Type = envutil.String("FORMHUB_ENGINE", cfg.Engine.Type)
	cfg.Engine.Model = envutil.String("GEMINI_MODEL", cfg.Engine.Model)
	cfg.Engine.BaseURL = envutil.String("GEMINI_BASE_URL", cfg.Engine.BaseURL)
	cfg.Engine.Timeout.Duration = envutil.Duration("GEMINI_TIMEOUT", cfg.Engine.Timeout.Duration)
	cfg.Engine.RequestsPerMinute = envutil.Int("GEMINI_REQUESTS_PER_MINUTE", cfg.Engine.RequestsPerMinute)

	cfg.RateLimit.Limit = envutil.Int("FORMHUB_RATE_LIMIT", cfg.RateLimit.Limit)
	cfg.RateLimit.Window.Duration = envutil.Duration("FORMHUB_RATE_WINDOW", cfg.RateLimit.Window.Duration)
	cfg.RateLimit.RedisAddr = envutil.String("REDIS_ADDR", cfg.RateLimit.RedisAddr)
	cfg.RateLimit.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.RateLimit.RedisPassword)
	cfg.RateLimit.RedisDB = envutil.Int("REDIS_DB", cfg.RateLimit.RedisDB)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	if h := tracing.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")); len(h) > 0 {
		cfg.Tracing.Headers = h
	}
	cfg.Tracing.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Tracing.SampleRatio)
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	e := &cfg.Engine
	e.APIKey = strings.TrimSpace(e.APIKey)
	e.Model = strings.TrimSpace(e.Model)
	if e.Model == "" {
		e.Model = DefaultModel
	}
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if e.BaseURL == "" {
		e.BaseURL = DefaultBaseURL
	}
	if e.Timeout.Duration <= 0 {
		e.Timeout = Duration{Duration: 30 * time.Second}
	}
	if e.RequestsPerMinute < 0 {
		return errors.New("engine.requests_per_minute must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case "", "gemini", "gemini_http":
		e.Type = EngineGeminiHTTP
	case "genai", "genai_sdk":
		e.Type = EngineGenAI
	case "mock":
		e.Type = EngineMock
	default:
		return fmt.Errorf("unsupported engine.type %q", e.Type)
	}

	if cfg.RateLimit.Limit < 0 {
		return errors.New("rate_limit.limit must be >= 0")
	}
	if cfg.RateLimit.Window.Duration <= 0 {
		cfg.RateLimit.Window = Duration{Duration: time.Minute}
	}
	return nil
}
