// Package config loads service configuration from an optional JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// LLM providers
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultDataDir           = "data/company-versions"
	DefaultPort              = 8080
	DefaultGenerationTimeout = 2 * time.Minute
)

// Duration is a time.Duration that reads and writes Go duration strings ("90s", "2m") in JSON
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"2m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the service configuration. Zero values are filled by MergeWithDefaults.
type Config struct {
	StoreBackend string `json:"store_backend,omitempty"`
	DataDir      string `json:"data_dir,omitempty"`
	DatabaseURL  string `json:"database_url,omitempty"`
	RedisAddr    string `json:"redis_addr,omitempty"`
	RedisPrefix  string `json:"redis_prefix,omitempty"`

	LLMProvider       string   `json:"llm_provider,omitempty"`
	GeminiAPIKey      string   `json:"gemini_api_key,omitempty"`
	AnthropicAPIKey   string   `json:"anthropic_api_key,omitempty"`
	GenerationModel   string   `json:"generation_model,omitempty"`
	GenerationTimeout Duration `json:"generation_timeout,omitempty"`

	Port    int    `json:"port,omitempty"`
	LogMode string `json:"log_mode,omitempty"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	return Config{
		StoreBackend:      BackendFile,
		DataDir:           DefaultDataDir,
		LLMProvider:       ProviderGemini,
		GenerationTimeout: Duration(DefaultGenerationTimeout),
		Port:              DefaultPort,
		LogMode:           "dev",
	}
}

// LoadConfig reads a JSON config file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Load builds the effective configuration: the file at path (optional), then environment
// variables, then defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables that are set and non-empty
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORE_BACKEND":     &c.StoreBackend,
		"DATA_DIR":          &c.DataDir,
		"DATABASE_URL":      &c.DatabaseURL,
		"REDIS_ADDR":        &c.RedisAddr,
		"REDIS_PREFIX":      &c.RedisPrefix,
		"LLM_PROVIDER":      &c.LLMProvider,
		"GEMINI_API_KEY":    &c.GeminiAPIKey,
		"ANTHROPIC_API_KEY": &c.AnthropicAPIKey,
		"GENERATION_MODEL":  &c.GenerationModel,
		"LOG_MODE":          &c.LogMode,
	}
	for name, field := range strs {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("GENERATION_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: GENERATION_TIMEOUT: %w", err)
		}
		c.GenerationTimeout = Duration(d)
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: PORT must be a number: %w", err)
		}
		c.Port = port
	}
	return nil
}

// MergeWithDefaults returns a copy with zero fields taken from defaults
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&result.StoreBackend, defaults.StoreBackend)
	fill(&result.DataDir, defaults.DataDir)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.RedisAddr, defaults.RedisAddr)
	fill(&result.RedisPrefix, defaults.RedisPrefix)
	fill(&result.LLMProvider, defaults.LLMProvider)
	fill(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	fill(&result.AnthropicAPIKey, defaults.AnthropicAPIKey)
	fill(&result.GenerationModel, defaults.GenerationModel)
	fill(&result.LogMode, defaults.LogMode)

	if result.GenerationTimeout == 0 {
		result.GenerationTimeout = defaults.GenerationTimeout
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	return result
}

// Validate checks backend and provider settings
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("config error: 'data_dir' is required for the file backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config error: 'redis_addr' is required for the redis backend")
		}
	default:
		return fmt.Errorf("config error: unknown store_backend %q", c.StoreBackend)
	}

	switch c.LLMProvider {
	case "", ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("config error: unknown llm_provider %q", c.LLMProvider)
	}

	if c.GenerationTimeout < 0 {
		return fmt.Errorf("config error: 'generation_timeout' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	return nil
}

// Timeout returns the generation timeout as a time.Duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.GenerationTimeout)
}

// APIKey returns the key for the configured provider
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
