// Package handler provides the bridge's request pipelines.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hpn/g4f-bridge/internal/adapter"
	"github.com/hpn/g4f-bridge/internal/domain"
)

// PipeHandler runs the single-shot completion pipeline: it reads one JSON
// request document from its input, asks the provider for a completion, and
// writes exactly one JSON document to its output. Success and failure share
// that channel; the exit code is the only other signal callers get.
type PipeHandler struct {
	in       io.Reader
	out      io.Writer
	provider adapter.ChatProvider
	logger   *slog.Logger
}

// PipeOption is a functional option for configuring PipeHandler.
type PipeOption func(*PipeHandler)

// WithPipeInput sets the reader the request document is consumed from.
// Defaults to os.Stdin.
func WithPipeInput(r io.Reader) PipeOption {
	return func(h *PipeHandler) {
		h.in = r
	}
}

// WithPipeOutput sets the writer the result document is written to.
// Defaults to os.Stdout.
func WithPipeOutput(w io.Writer) PipeOption {
	return func(h *PipeHandler) {
		h.out = w
	}
}

// WithPipeLogger sets a custom logger.
func WithPipeLogger(logger *slog.Logger) PipeOption {
	return func(h *PipeHandler) {
		h.logger = logger
	}
}

// NewPipeHandler creates a new PipeHandler backed by the given provider.
func NewPipeHandler(provider adapter.ChatProvider, opts ...PipeOption) *PipeHandler {
	h := &PipeHandler{
		in:       os.Stdin,
		out:      os.Stdout,
		provider: provider,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Run executes the pipeline once and returns the process exit code:
// 0 when a success document was written, 1 for every failure. A failure
// still writes a document; no path leaves the output empty except a broken
// output writer itself.
func (h *PipeHandler) Run(ctx context.Context) int {
	raw, err := io.ReadAll(h.in)
	if err != nil {
		return h.fail(fmt.Errorf("failed to read input: %w", err))
	}

	var req domain.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		// Malformed input surfaces the decoder's own message, unprefixed.
		return h.fail(err)
	}

	req.Normalize()

	h.logger.Debug("request decoded",
		slog.String("model", req.Model),
		slog.Int("messages", len(req.Messages)),
		slog.Float64("temperature", *req.Temperature),
		slog.Int("max_tokens", *req.MaxTokens),
	)

	resp, err := h.provider.ChatCompletion(ctx, toChatRequest(req))
	if err != nil {
		return h.fail(fmt.Errorf("G4F completion failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return h.fail(errors.New("G4F completion failed: no choices returned"))
	}

	content := resp.Choices[0].Message.Content
	tokens := EstimateTokens(content)

	h.logger.Info("completion succeeded",
		slog.String("provider", h.provider.Name()),
		slog.String("model", resp.Model),
		slog.Int("tokens", tokens),
	)

	if err := h.writeDocument(domain.NewResult(content, tokens)); err != nil {
		return 1
	}
	return 0
}

// toChatRequest converts an inbound request into the provider's shape.
// Only the model and the normalized messages cross the boundary; tuning
// fields stay behind.
func toChatRequest(req domain.Request) adapter.ChatRequest {
	chatReq := adapter.ChatRequest{
		Model:    req.Model,
		Messages: make([]adapter.ChatMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		chatReq.Messages[i] = adapter.ChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return chatReq
}

// fail logs the error, writes the failure document and reports exit code 1.
func (h *PipeHandler) fail(err error) int {
	h.logger.Error("completion failed", slog.String("error", err.Error()))
	h.writeDocument(domain.NewErrorResult(err))
	return 1
}

// writeDocument encodes v onto the output as a single JSON document followed
// by a newline. Run calls it exactly once per invocation.
func (h *PipeHandler) writeDocument(v any) error {
	if err := json.NewEncoder(h.out).Encode(v); err != nil {
		h.logger.Error("failed to write result", slog.String("error", err.Error()))
		return err
	}
	return nil
}
