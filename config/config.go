// Package config loads gateway settings from an optional file and BASEQL_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/upstream"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "BASEQL"

// Search match modes.
const (
	SearchExact    = "exact"
	SearchContains = "contains"
)

// Config holds all gateway settings.
type Config struct {
	// Endpoint is the BaseQL GraphQL URL (env: BASEQL_ENDPOINT).
	Endpoint string `mapstructure:"endpoint"`
	// APIKey is the BaseQL credential, with or without "Bearer " (env: BASEQL_API_KEY).
	APIKey string `mapstructure:"api_key"`

	// RequestsPerSecond paces upstream calls; 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// OutputFormat is "json" (default) or "compact".
	OutputFormat string `mapstructure:"output_format"`
	// SearchMatch is "exact" (default) or "contains".
	SearchMatch string `mapstructure:"search_match"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Burst:        1,
		OutputFormat: "json",
		SearchMatch:  SearchExact,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables are used. A path that cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("api_key", def.APIKey)
	v.SetDefault("requests_per_second", def.RequestsPerSecond)
	v.SetDefault("burst", def.Burst)
	v.SetDefault("output_format", def.OutputFormat)
	v.SetDefault("search_match", def.SearchMatch)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &gqlquery.Error{
				Code:    gqlquery.ErrConfiguration,
				Message: fmt.Sprintf("read config file %s: %s", path, err),
				Details: map[string]any{"path": path},
				Err:     err,
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrConfiguration,
			Message: fmt.Sprintf("decode config: %s", err),
			Err:     err,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes enum-like settings and applies defaults. Missing
// endpoint or API key is not reported here: the gateway still starts and
// answers every operation with a configuration error instead.
func (c *Config) Validate() error {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.APIKey = strings.TrimSpace(c.APIKey)

	if c.OutputFormat == "" {
		c.OutputFormat = "json"
	}
	if _, err := gqlquery.ParseOutputMode(c.OutputFormat); err != nil {
		return invalid("output_format", c.OutputFormat, "json, compact")
	}

	c.SearchMatch = strings.ToLower(c.SearchMatch)
	switch c.SearchMatch {
	case "":
		c.SearchMatch = SearchExact
	case SearchExact, SearchContains:
	default:
		return invalid("search_match", c.SearchMatch, "exact, contains")
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level", c.LogLevel, "debug, info, warn, error")
	}

	c.LogFormat = strings.ToLower(c.LogFormat)
	switch c.LogFormat {
	case "":
		c.LogFormat = "json"
	case "json", "text":
	default:
		return invalid("log_format", c.LogFormat, "json, text")
	}

	if c.RequestsPerSecond < 0 {
		return invalid("requests_per_second", fmt.Sprint(c.RequestsPerSecond), ">= 0")
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}

// Upstream returns the transport configuration.
func (c *Config) Upstream(userAgent string) upstream.Config {
	return upstream.Config{
		Endpoint:          c.Endpoint,
		APIKey:            c.APIKey,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		UserAgent:         userAgent,
	}
}

// OutputMode returns the parsed output format. Validate must have succeeded.
func (c *Config) OutputMode() gqlquery.OutputMode {
	mode, _ := gqlquery.ParseOutputMode(c.OutputFormat)
	return mode
}

func invalid(key, value, allowed string) error {
	return &gqlquery.Error{
		Code:    gqlquery.ErrConfiguration,
		Message: fmt.Sprintf("invalid %s %q: must be one of %s", key, value, allowed),
		Details: map[string]any{"key": key, "value": value},
	}
}
