package adapter

import (
	"testing"
)

func TestOpenRouterAdapter_mapModelName(t *testing.T) {
	adapter := NewOpenRouterAdapter("test-api-key")

	tests := []struct {
		input    string
		expected string
	}{
		{"gpt-4", "meta-llama/llama-3.3-70b-instruct:free"},
		{"gpt-4-turbo", "meta-llama/llama-3.3-70b-instruct:free"},
		{"gpt-4o", "deepseek/deepseek-chat:free"},
		{"gpt-4o-mini", "stepfun/step-3.5-flash:free"},
		{"gpt-3.5-turbo", "mistralai/mistral-7b-instruct:free"},
		{"mistralai/mistral-7b-instruct:free", "mistralai/mistral-7b-instruct:free"}, // Pass-through
		{"anthropic/claude-3-haiku", "anthropic/claude-3-haiku"},                     // Pass-through
		{"unknown-model", DefaultUpstreamModel},                                      // Fallback
		{"", DefaultUpstreamModel},                                                   // Fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := adapter.mapModelName(tt.input)
			if result != tt.expected {
				t.Errorf("mapModelName(%s) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestOpenRouterAdapter_mapModelName_CustomDefault(t *testing.T) {
	adapter := NewOpenRouterAdapter(
		"test-api-key",
		WithDefaultModel("stepfun/step-3.5-flash:free"),
	)

	result := adapter.mapModelName("unknown-model")
	if result != "stepfun/step-3.5-flash:free" {
		t.Errorf("mapModelName(unknown-model) = %s, want stepfun/step-3.5-flash:free", result)
	}

	// Aliases win over the configured default.
	if got := adapter.mapModelName("gpt-4o"); got != "deepseek/deepseek-chat:free" {
		t.Errorf("mapModelName(gpt-4o) = %s, want deepseek/deepseek-chat:free", got)
	}
}

func TestOpenRouterAdapter_Name(t *testing.T) {
	adapter := NewOpenRouterAdapter("test-api-key")

	if adapter.Name() != "g4f" {
		t.Errorf("Name() = %s, want g4f", adapter.Name())
	}
}

func TestNewOpenRouterAdapter_Options(t *testing.T) {
	adapter := NewOpenRouterAdapter(
		"test-api-key",
		WithDefaultModel("deepseek/deepseek-chat:free"),
		WithAppTitle("custom-title"),
	)

	if adapter.defaultModel != "deepseek/deepseek-chat:free" {
		t.Errorf("defaultModel = %s, want deepseek/deepseek-chat:free", adapter.defaultModel)
	}
	if adapter.appTitle != "custom-title" {
		t.Errorf("appTitle = %s, want custom-title", adapter.appTitle)
	}
	if adapter.client == nil {
		t.Error("client is nil, expected initialized client")
	}
}

func TestNewOpenRouterAdapter_Defaults(t *testing.T) {
	adapter := NewOpenRouterAdapter("test-api-key")

	if adapter.defaultModel != DefaultUpstreamModel {
		t.Errorf("defaultModel = %s, want %s", adapter.defaultModel, DefaultUpstreamModel)
	}
	if adapter.appTitle != DefaultAppTitle {
		t.Errorf("appTitle = %s, want %s", adapter.appTitle, DefaultAppTitle)
	}
}

func TestModelAliases_ReturnsCopy(t *testing.T) {
	aliases := ModelAliases()

	if len(aliases) != len(modelAliases) {
		t.Errorf("len(aliases) = %d, want %d", len(aliases), len(modelAliases))
	}
	if aliases["gpt-4o-mini"] != "stepfun/step-3.5-flash:free" {
		t.Errorf("aliases[gpt-4o-mini] = %s, want stepfun/step-3.5-flash:free", aliases["gpt-4o-mini"])
	}

	// Mutating the returned map must not touch the catalog.
	aliases["gpt-4o-mini"] = "tampered"
	if modelAliases["gpt-4o-mini"] != "stepfun/step-3.5-flash:free" {
		t.Error("mutating the returned map changed the catalog")
	}
}
