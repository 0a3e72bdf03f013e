package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeConfigFile drops a yaml config into a temp dir and returns its path.
func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyFallback, "")

	path := writeConfigFile(t, "server:\n  port: 9090\n")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 from file", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %s, want default 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Upstream.DefaultModel != "openrouter/free" {
		t.Errorf("Upstream.DefaultModel = %s, want default openrouter/free", cfg.Upstream.DefaultModel)
	}
	if cfg.Upstream.AppTitle != "g4f-bridge" {
		t.Errorf("Upstream.AppTitle = %s, want default g4f-bridge", cfg.Upstream.AppTitle)
	}
	if cfg.Upstream.TimeoutSeconds != 0 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want 0 (no deadline)", cfg.Upstream.TimeoutSeconds)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 300 {
		t.Errorf("Cache = %+v, want enabled with 300s TTL", cfg.Cache)
	}
	if cfg.RateLimit.RequestsPerMinute != 20 || cfg.RateLimit.Burst != 5 {
		t.Errorf("RateLimit = %+v, want 20 rpm with burst 5", cfg.RateLimit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json defaults", cfg.Logging)
	}
}

func TestLoadConfig_EnvKeyPriority(t *testing.T) {
	path := writeConfigFile(t, "upstream:\n  api_key: file-key\n")

	t.Setenv(EnvAPIKey, "primary-key")
	t.Setenv(EnvAPIKeyFallback, "fallback-key")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Upstream.APIKey != "primary-key" {
		t.Errorf("APIKey = %s, want primary-key (G4F_API_KEY wins)", cfg.Upstream.APIKey)
	}
}

func TestLoadConfig_FallbackEnvKey(t *testing.T) {
	path := writeConfigFile(t, "upstream:\n  api_key: file-key\n")

	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyFallback, "fallback-key")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Upstream.APIKey != "fallback-key" {
		t.Errorf("APIKey = %s, want fallback-key (OPENROUTER_API_KEY honored)", cfg.Upstream.APIKey)
	}
}

func TestLoadConfig_FileKeyWithoutEnv(t *testing.T) {
	path := writeConfigFile(t, "upstream:\n  api_key: file-key\n")

	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyFallback, "")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Upstream.APIKey != "file-key" {
		t.Errorf("APIKey = %s, want file-key from config file", cfg.Upstream.APIKey)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [this is: not yaml\n")

	_, err := loadConfig(path)
	if err == nil {
		t.Fatal("loadConfig() error = nil, want read error")
	}
	if !IsConfigError(err) {
		t.Errorf("error type = %T, want *ConfigError", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 99999\n")

	_, err := loadConfig(path)
	if err == nil {
		t.Fatal("loadConfig() error = nil, want validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}

	var verr *ValidationError
	if errors.As(err, &verr) && !verr.HasError("server.port") {
		t.Errorf("validation errors %v missing server.port", verr.Errors)
	}
}

func TestConfiguration_Validate(t *testing.T) {
	valid := func() *Configuration {
		return &Configuration{
			Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
			Upstream: UpstreamConfig{
				DefaultModel: "openrouter/free",
			},
			Cache:     CacheConfig{Enabled: true, TTLSeconds: 300},
			RateLimit: RateLimitConfig{RequestsPerMinute: 20, Burst: 5},
			Logging:   LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Configuration)
		wantField string
	}{
		{"valid", func(c *Configuration) {}, ""},
		{"port too low", func(c *Configuration) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Configuration) { c.Server.Port = 70000 }, "server.port"},
		{"missing default model", func(c *Configuration) { c.Upstream.DefaultModel = "" }, "upstream.default_model"},
		{"negative upstream timeout", func(c *Configuration) { c.Upstream.TimeoutSeconds = -1 }, "upstream.timeout_seconds"},
		{"cache enabled without ttl", func(c *Configuration) { c.Cache.TTLSeconds = 0 }, "cache.ttl_seconds"},
		{"negative rate limit", func(c *Configuration) { c.RateLimit.RequestsPerMinute = -1 }, "rate_limit.requests_per_minute"},
		{"rate limit without burst", func(c *Configuration) { c.RateLimit.Burst = 0 }, "rate_limit.burst"},
		{"bad log level", func(c *Configuration) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Configuration) { c.Logging.Format = "xml" }, "logging.format"},
		{"rate limiting disabled ignores burst", func(c *Configuration) {
			c.RateLimit.RequestsPerMinute = 0
			c.RateLimit.Burst = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() error = nil, want error mentioning %s", tt.wantField)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !verr.HasError(tt.wantField) {
				t.Errorf("validation errors %v missing %s", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestGetConfigWithPath_Singleton(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyFallback, "")

	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, "server:\n  port: 9191\n")

	first, err := GetConfigWithPath(path)
	if err != nil {
		t.Fatalf("GetConfigWithPath() error = %v", err)
	}
	if first.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", first.Server.Port)
	}

	// Second call returns the same instance regardless of path.
	second, err := GetConfigWithPath(writeConfigFile(t, "server:\n  port: 1111\n"))
	if err != nil {
		t.Fatalf("second GetConfigWithPath() error = %v", err)
	}
	if first != second {
		t.Error("GetConfigWithPath returned a different instance on second call")
	}
	if second.Server.Port != 9191 {
		t.Errorf("second call Server.Port = %d, want cached 9191", second.Server.Port)
	}
}
