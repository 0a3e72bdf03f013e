// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

// Default request parameters. Missing input fields take these values
// rather than causing a failure.
const (
	// DefaultModel is used when the request omits a model name.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature fills an absent temperature field. The value is
	// accepted for forward-compatibility but not forwarded to the
	// completion call.
	DefaultTemperature = 0.7

	// DefaultMaxTokens fills an absent max_tokens field. Like temperature,
	// it is accepted but not forwarded to the completion call.
	DefaultMaxTokens = 2000
)

// Message is a single conversation turn. Decoding into this struct drops
// any extra fields the caller supplied, so the provider call only ever
// receives role and content.
type Message struct {
	// Role is the speaker: "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Request is the completion request read from the caller. Field order and
// defaults mirror the documented input contract; use Normalize before
// handing the request to a provider.
type Request struct {
	// Messages is the ordered conversation history. Order is meaningful
	// (conversation order) and there is no uniqueness constraint.
	Messages []Message `json:"messages"`

	// Model selects the target completion model. Empty means DefaultModel.
	Model string `json:"model"`

	// Temperature controls sampling randomness. Optional; currently unused
	// downstream.
	Temperature *float64 `json:"temperature"`

	// MaxTokens limits the response length. Optional; currently unused
	// downstream.
	MaxTokens *int `json:"max_tokens"`
}

// Normalize applies the documented defaults in place: a nil message list
// becomes an empty one, an empty model becomes DefaultModel, and absent
// tuning parameters take their default values.
func (r *Request) Normalize() {
	if r.Messages == nil {
		r.Messages = []Message{}
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.Temperature == nil {
		t := float64(DefaultTemperature)
		r.Temperature = &t
	}
	if r.MaxTokens == nil {
		n := DefaultMaxTokens
		r.MaxTokens = &n
	}
}
