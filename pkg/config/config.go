package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the ClarifaiSQL engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, admin secret) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// AllowedOrigins is the cross-origin allowlist for browser callers.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`

	// AdminSecret gates the feedback administration endpoints.
	// Requests must present it verbatim in the X-Admin-Secret header.
	AdminSecret string `yaml:"-" env:"ADMIN_SECRET"` // Secret - not in YAML

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Feedback database configuration (embedded SQLite)
	Database DatabaseConfig `yaml:"database"`
}

// LLMConfig holds configuration for the outbound LLM provider.
type LLMConfig struct {
	// Provider selects the completion backend: "gemini" (default),
	// "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"gemini"`

	// Model is the provider-specific model name.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:"gemini-2.0-flash-exp"`

	// BaseURL overrides the provider's default endpoint (OpenAI-compatible
	// local deployments, proxies). Empty means the provider default.
	BaseURL string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`

	// APIKey authenticates against the provider. GEMINI_API_KEY is honored
	// as a fallback for compatibility with existing deployments.
	APIKey       string `yaml:"-" env:"LLM_API_KEY"`    // Secret - not in YAML
	GeminiAPIKey string `yaml:"-" env:"GEMINI_API_KEY"` // Secret - not in YAML

	// TimeoutSeconds bounds a single completion request. Generation latency
	// dominates, so the default is generous.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`

	// MaxAttempts is the total number of attempts for a completion request
	// (1 initial + retries) on transport-level failures.
	MaxAttempts int `yaml:"max_attempts" env:"LLM_MAX_ATTEMPTS" env-default:"2"`

	// RetryDelayMs is the fixed delay between attempts.
	RetryDelayMs int `yaml:"retry_delay_ms" env:"LLM_RETRY_DELAY_MS" env-default:"500"`

	// MaxConns caps concurrent outbound connections to the provider.
	// Exhaustion queues new calls instead of failing them.
	MaxConns int `yaml:"max_conns" env:"LLM_MAX_CONNS" env-default:"10"`
}

// DatabaseConfig holds the embedded feedback database configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file for feedback records.
	Path string `yaml:"path" env:"FEEDBACK_DB_PATH" env-default:"feedbacks.db"`

	// MigrationsPath is the directory containing schema migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// Timeout returns the completion request timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed inter-attempt delay as a duration.
func (c *LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Key returns the effective API key for the configured provider.
func (c *LLMConfig) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.GeminiAPIKey
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks invariants that cleanenv tags cannot express.
func (c *Config) Validate() error {
	if c.LLM.Key() == "" {
		return fmt.Errorf("LLM API key not set; provide LLM_API_KEY or GEMINI_API_KEY")
	}
	if c.AdminSecret == "" {
		return fmt.Errorf("ADMIN_SECRET not set")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm max_attempts must be at least 1")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
