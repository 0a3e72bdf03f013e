// Package adapter provides implementations for external AI provider integrations.
package adapter

// ChatRequest is the provider-facing completion request. Only the fields the
// bridge actually forwards upstream are modeled here; tuning knobs such as
// temperature and max_tokens are accepted at the edge but never forwarded.
type ChatRequest struct {
	// Model is the caller-supplied model name. Implementations translate it
	// to whatever identifier their upstream expects.
	Model string `json:"model"`

	// Messages is the ordered conversation history. Each entry carries
	// exactly a role and a content string.
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	// Role is the speaker: "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatResponse is the provider-facing completion response.
type ChatResponse struct {
	// ID is a unique identifier for the completion.
	ID string `json:"id"`

	// Model is the model that actually served the request, as reported by
	// the upstream. May differ from the requested name after translation.
	Model string `json:"model"`

	// Choices contains the generated completions. Implementations guarantee
	// at least one entry on success.
	Choices []ChatChoice `json:"choices"`

	// Usage reports upstream token accounting when available.
	Usage ChatUsage `json:"usage"`
}

// ChatChoice is a single generated completion.
type ChatChoice struct {
	Index   int         `json:"index"`
	Message ChatMessage `json:"message"`
}

// ChatUsage is the upstream's own token accounting. The bridge reports its
// word-based estimate to callers and keeps these figures for logging only.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
