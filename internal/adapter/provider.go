// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to abstract provider-specific APIs behind a common interface.
package adapter

import (
	"context"
)

// ChatProvider is the completion capability the bridge depends on:
// given a model name and an ordered message sequence, produce a completed,
// non-streamed response with at least one choice. Upstream selection and
// authentication are the implementation's own concern.
type ChatProvider interface {
	// ChatCompletion performs a single chat completion request.
	// The call is synchronous from the caller's point of view; it may block
	// on network I/O until the upstream responds or ctx is cancelled.
	ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Name returns the provider's identifier string.
	Name() string
}
