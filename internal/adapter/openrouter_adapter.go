// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	openrouter "github.com/revrost/go-openrouter"
)

const (
	// DefaultUpstreamModel auto-routes to any available free model on OpenRouter.
	DefaultUpstreamModel = "openrouter/free"

	// DefaultAppTitle is the X-Title attribution sent with each request.
	DefaultAppTitle = "g4f-bridge"
)

// modelAliases maps the OpenAI-style model names callers send to free-tier
// OpenRouter identifiers. Names carrying a vendor prefix ("/") pass through
// untranslated; anything else falls back to DefaultUpstreamModel.
var modelAliases = map[string]string{
	"gpt-4":         "meta-llama/llama-3.3-70b-instruct:free",
	"gpt-4-turbo":   "meta-llama/llama-3.3-70b-instruct:free",
	"gpt-4o":        "deepseek/deepseek-chat:free",
	"gpt-4o-mini":   "stepfun/step-3.5-flash:free",
	"gpt-3.5-turbo": "mistralai/mistral-7b-instruct:free",
}

// OpenRouterAdapter implements ChatProvider against the OpenRouter API using
// free-tier models only, which is what lets the bridge report a cost of zero.
// It translates caller-facing model names to upstream identifiers and the
// upstream response back to the bridge's chat types.
type OpenRouterAdapter struct {
	client       *openrouter.Client
	defaultModel string
	appTitle     string
}

// OpenRouterOption is a functional option for configuring OpenRouterAdapter.
type OpenRouterOption func(*OpenRouterAdapter)

// WithDefaultModel sets the upstream model used when the caller's model name
// has no alias and no vendor prefix. Defaults to DefaultUpstreamModel.
func WithDefaultModel(model string) OpenRouterOption {
	return func(o *OpenRouterAdapter) {
		if model != "" {
			o.defaultModel = model
		}
	}
}

// WithAppTitle sets the X-Title attribution header. Defaults to DefaultAppTitle.
func WithAppTitle(title string) OpenRouterOption {
	return func(o *OpenRouterAdapter) {
		if title != "" {
			o.appTitle = title
		}
	}
}

// NewOpenRouterAdapter creates a new OpenRouterAdapter with the given API key.
func NewOpenRouterAdapter(apiKey string, opts ...OpenRouterOption) *OpenRouterAdapter {
	o := &OpenRouterAdapter{
		defaultModel: DefaultUpstreamModel,
		appTitle:     DefaultAppTitle,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.client = openrouter.NewClient(
		apiKey,
		openrouter.WithXTitle(o.appTitle),
	)

	return o
}

// Name returns the provider identifier.
func (o *OpenRouterAdapter) Name() string {
	return "g4f"
}

// ChatCompletion performs a chat completion request against OpenRouter.
// It makes exactly one upstream attempt: no fallback models, no retries.
// Failures surface to the caller unchanged.
func (o *OpenRouterAdapter) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	msgs := make([]openrouter.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openrouter.ChatCompletionMessage{
			Role:    m.Role,
			Content: openrouter.Content{Text: m.Content},
		}
	}

	model := o.mapModelName(req.Model)

	resp, err := o.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openrouter %s: %w", model, err)
	}

	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("openrouter %s: no choices returned", model)
	}

	out := ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano()),
		Model:   resp.Model,
		Choices: make([]ChatChoice, 0, len(resp.Choices)),
		Usage: ChatUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for i, choice := range resp.Choices {
		out.Choices = append(out.Choices, ChatChoice{
			Index: i,
			Message: ChatMessage{
				Role:    "assistant",
				Content: choice.Message.Content.Text,
			},
		})
	}

	return out, nil
}

// mapModelName converts caller-facing model names to OpenRouter equivalents.
func (o *OpenRouterAdapter) mapModelName(model string) string {
	if mapped, ok := modelAliases[model]; ok {
		return mapped
	}

	// A vendor prefix means the caller already named an upstream model.
	if strings.Contains(model, "/") {
		return model
	}

	return o.defaultModel
}

// ModelAliases returns a copy of the caller-facing model catalog.
func ModelAliases() map[string]string {
	aliases := make(map[string]string, len(modelAliases))
	for name, upstream := range modelAliases {
		aliases[name] = upstream
	}
	return aliases
}
