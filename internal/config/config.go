// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration (serve mode only)
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Upstream provider configuration
	Upstream UpstreamConfig `json:"upstream" mapstructure:"upstream"`

	// Response cache configuration (serve mode only)
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Upstream rate limiting configuration (serve mode only)
	RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds is the maximum duration before timing out writes of
	// the response. Completions can be slow, so this defaults much higher than
	// the read timeout.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum duration to wait for active
	// connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// UpstreamConfig holds the OpenRouter upstream configuration.
type UpstreamConfig struct {
	// APIKey authenticates against the upstream. Usually supplied via the
	// G4F_API_KEY environment variable rather than the config file. An empty
	// key is allowed; the upstream call itself will report the failure.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// AppTitle is the X-Title attribution header sent upstream.
	AppTitle string `json:"app_title" mapstructure:"app_title"`

	// DefaultModel is the upstream model used when a caller's model name has
	// no alias. Must name a free-tier model to keep completions at zero cost.
	DefaultModel string `json:"default_model" mapstructure:"default_model"`

	// TimeoutSeconds bounds a single upstream call. Zero means no deadline:
	// the call waits as long as the upstream takes.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	// Enabled turns the serve-mode response cache on.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTLSeconds is how long a cached response stays fresh.
	TTLSeconds int `json:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// RateLimitConfig holds upstream rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerMinute caps upstream calls. Zero disables the limiter.
	RequestsPerMinute int `json:"requests_per_minute" mapstructure:"requests_per_minute"`

	// Burst is the number of calls allowed to exceed the steady rate.
	Burst int `json:"burst" mapstructure:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stderr).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
// Returns an error if configuration loading fails.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// This should be used when you need to specify a non-default configuration file path.
// Returns an error if configuration loading fails.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
// Use this only when configuration is absolutely required and the application
// cannot proceed without it.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields
// are missing or out of range.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate upstream configuration
	if c.Upstream.DefaultModel == "" {
		validationErrors = append(validationErrors, "upstream.default_model is required")
	}
	if c.Upstream.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "upstream.timeout_seconds cannot be negative")
	}

	// Validate cache configuration
	if c.Cache.Enabled && c.Cache.TTLSeconds <= 0 {
		validationErrors = append(validationErrors, "cache.ttl_seconds must be positive when the cache is enabled")
	}

	// Validate rate limit configuration
	if c.RateLimit.RequestsPerMinute < 0 {
		validationErrors = append(validationErrors, "rate_limit.requests_per_minute cannot be negative")
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		validationErrors = append(validationErrors, "rate_limit.burst must be positive when rate limiting is enabled")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && !isValidLogFormat(c.Logging.Format) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// isValidLogFormat checks if the log format is valid.
func isValidLogFormat(format string) bool {
	switch format {
	case "json", "text":
		return true
	default:
		return false
	}
}
