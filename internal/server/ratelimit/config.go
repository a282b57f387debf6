package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route. Pattern segments equal to "*" match any single path segment;
// a pattern ending in "/" matches by prefix.
type EndpointConfig struct {
	Pattern string
	Method  string
	Limit   int           // requests per Window
	Window  time.Duration // refill period for Limit tokens
	Burst   int           // bucket capacity, Limit when zero
}

// Config holds limiter settings
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig is used when no environment overrides are present
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs puts the LLM-backed routes on a much tighter budget than plain
// history reads and writes.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Pattern: "/company-versions/generate", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Pattern: "/company-versions/*/modify", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},

		{Pattern: "/company-versions", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Pattern: "/company-versions/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Pattern: "/company-versions/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},
		{Pattern: "/company-versions/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// LoadConfig reads RATE_LIMIT_* variables through lookup on top of DefaultConfig.
// Unparseable values keep their defaults.
func LoadConfig(lookup func(string) (string, bool)) *Config {
	cfg := DefaultConfig()
	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := env("RATE_LIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v := env("RATE_LIMIT_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultLimit = n
		}
	}
	if v := env("RATE_LIMIT_DEFAULT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DefaultWindow = d
		}
	}
	if v := env("RATE_LIMIT_GENERATION_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for i := range cfg.EndpointConfigs {
				if cfg.EndpointConfigs[i].Window == time.Hour {
					cfg.EndpointConfigs[i].Limit = n
				}
			}
		}
	}
	cfg.Whitelist = parseIPList(env("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(env("RATE_LIMIT_BLACKLIST"))
	return cfg
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
