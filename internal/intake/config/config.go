package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// AllowedOrigins are the browser origins the form site is served from.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

type EngineConfig struct {
	// Type selects the upstream implementation: "gemini_http" (default), "genai" or "mock".
	Type string `json:"type" yaml:"type"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`

	// APIKey is the generation-service credential. It is normally injected from
	// GEMINI_API_KEY rather than written to a config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// RequestsPerMinute caps outbound calls from this process. Zero means unlimited.
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
}

type PromptConfig struct {
	// Sentinels are answer values that carry no information ("No", "false", ...).
	Sentinels      []string `json:"sentinels,omitempty" yaml:"sentinels,omitempty"`
	ReservedPrefix string   `json:"reserved_prefix,omitempty" yaml:"reserved_prefix,omitempty"`
}

type RateLimitConfig struct {
	// Limit is requests per Window per client on the generate endpoints. Zero disables it.
	Limit  int      `json:"limit,omitempty" yaml:"limit,omitempty"`
	Window Duration `json:"window,omitempty" yaml:"window,omitempty"`

	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

type TracingConfig struct {
	Enabled     bool              `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName string            `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Insecure    bool              `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRatio float64           `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`
}

type Config struct {
	Env       string          `json:"env" yaml:"env"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Prompt    PromptConfig    `json:"prompt" yaml:"prompt"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}
