// Package domain contains the core business entities and value objects.
package domain

// ProviderLabel identifies this adapter in every emitted document,
// success or error.
const ProviderLabel = "g4f"

// Result is the success-shaped output document. It carries exactly the
// keys content, tokens, cost and provider, and never an error field.
type Result struct {
	// Content is the completion text from the first returned choice.
	Content string `json:"content"`

	// Tokens is a heuristic estimate of the completion length, not an
	// exact tokenizer count.
	Tokens int `json:"tokens"`

	// Cost is always 0.0: the backing provider is free.
	Cost float64 `json:"cost"`

	// Provider is always ProviderLabel.
	Provider string `json:"provider"`
}

// ErrorResult is the failure-shaped output document. It carries exactly
// the keys error and provider, and never a content field.
type ErrorResult struct {
	// Error is the human-readable failure message.
	Error string `json:"error"`

	// Provider is always ProviderLabel.
	Provider string `json:"provider"`
}

// NewResult builds a success result for the given completion text and
// estimated token count.
func NewResult(content string, tokens int) Result {
	return Result{
		Content:  content,
		Tokens:   tokens,
		Cost:     0.0,
		Provider: ProviderLabel,
	}
}

// NewErrorResult wraps err in the failure shape. Every kind of failure
// collapses into this one form.
func NewErrorResult(err error) ErrorResult {
	return ErrorResult{
		Error:    err.Error(),
		Provider: ProviderLabel,
	}
}
