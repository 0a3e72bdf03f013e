// Package config provides configuration management using the Singleton pattern.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "G4F_BRIDGE"

	// EnvAPIKey is the primary environment variable for the upstream API key.
	// It takes priority over both the fallback variable and file configuration.
	EnvAPIKey = "G4F_API_KEY"

	// EnvAPIKeyFallback is honored when EnvAPIKey is unset, so existing
	// OpenRouter setups work without renaming their variable.
	EnvAPIKeyFallback = "OPENROUTER_API_KEY"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. G4F_API_KEY / OPENROUTER_API_KEY env vars for the upstream key
// 2. Environment variables (prefixed with G4F_BRIDGE_)
// 3. config.yaml - fallback for local development
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure Viper
	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	// Add config search paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/g4f-bridge")
		v.AddConfigPath("$HOME/.g4f-bridge")
	}

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Read the configuration file. A missing file is fine: pipe invocations
	// usually run on environment variables and defaults alone, and must stay
	// quiet on stderr in that common path.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "[SECURITY] Warning: using %s - prefer %s env var for the upstream key\n", v.ConfigFileUsed(), EnvAPIKey)
	}

	// Unmarshal configuration
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	// The dedicated key variables beat whatever the file carried.
	fileKey := cfg.Upstream.APIKey
	if loadAPIKeyFromEnv(&cfg) && fileKey != "" {
		fmt.Fprintf(os.Stderr, "[SECURITY] Using upstream key from environment (file config key ignored)\n")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Upstream defaults
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.app_title", "g4f-bridge")
	v.SetDefault("upstream.default_model", "openrouter/free")
	v.SetDefault("upstream.timeout_seconds", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 300)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_minute", 20)
	v.SetDefault("rate_limit.burst", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}

// loadAPIKeyFromEnv loads the upstream API key from the environment.
// EnvAPIKey wins over EnvAPIKeyFallback; both win over file configuration.
// Returns true if a key was loaded from either variable.
func loadAPIKeyFromEnv(cfg *Configuration) bool {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		cfg.Upstream.APIKey = key
		return true
	}

	if key := strings.TrimSpace(os.Getenv(EnvAPIKeyFallback)); key != "" {
		cfg.Upstream.APIKey = key
		return true
	}

	return false
}
