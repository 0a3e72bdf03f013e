package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/g4f-bridge/internal/adapter"
	"github.com/hpn/g4f-bridge/internal/domain"
	"github.com/hpn/g4f-bridge/internal/ui"
)

// CompletionHandler serves the HTTP completion endpoint. It speaks the same
// request and result documents as the stdin pipeline, so a client can move
// between the two modes without changing payloads.
type CompletionHandler struct {
	provider        adapter.ChatProvider
	cache           *FlashCache
	upstreamTimeout time.Duration
	logger          *slog.Logger
}

// CompletionHandlerOption is a functional option for configuring CompletionHandler.
type CompletionHandlerOption func(*CompletionHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CompletionHandlerOption {
	return func(h *CompletionHandler) {
		h.logger = logger
	}
}

// WithUpstreamTimeout bounds each provider call. Zero means no deadline.
func WithUpstreamTimeout(d time.Duration) CompletionHandlerOption {
	return func(h *CompletionHandler) {
		if d > 0 {
			h.upstreamTimeout = d
		}
	}
}

// WithCache attaches the response cache so /health can report its counters.
func WithCache(cache *FlashCache) CompletionHandlerOption {
	return func(h *CompletionHandler) {
		h.cache = cache
	}
}

// NewCompletionHandler creates a new CompletionHandler.
func NewCompletionHandler(provider adapter.ChatProvider, opts ...CompletionHandlerOption) *CompletionHandler {
	h := &CompletionHandler{
		provider: provider,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleCompletion handles POST /v1/completions.
// The response body is always one of the two result documents, matching what
// the pipeline writes on stdout: content/tokens/cost/provider on success,
// error/provider on failure.
func (h *CompletionHandler) HandleCompletion(c *gin.Context) {
	var req domain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, fmt.Errorf("Invalid request body: %v", err))
		return
	}

	req.Normalize()

	// The pipeline forwards empty conversations untouched; over HTTP an
	// empty messages array is almost always a client bug, so reject it.
	if len(req.Messages) == 0 {
		h.sendError(c, http.StatusBadRequest, errors.New("messages array is required"))
		return
	}

	// Stash metadata for the logging middleware.
	c.Set("model_requested", req.Model)

	ctx := c.Request.Context()
	if h.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.upstreamTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := h.provider.ChatCompletion(ctx, toChatRequest(req))
	if err != nil {
		h.logger.Error("upstream completion failed",
			slog.String("model", req.Model),
			slog.String("error", err.Error()),
		)
		ui.PrintUpstreamError(req.Model, err.Error())
		h.sendError(c, http.StatusBadGateway, fmt.Errorf("G4F completion failed: %w", err))
		return
	}
	if len(resp.Choices) == 0 {
		h.sendError(c, http.StatusBadGateway, errors.New("G4F completion failed: no choices returned"))
		return
	}

	content := resp.Choices[0].Message.Content
	tokens := EstimateTokens(content)

	metrics := CalculateRequestCost(ExtractInputText(req.Messages), content)
	ui.PrintChaChing(
		FormatMoneySaved(metrics.MoneySaved),
		FormatTotalSaved(metrics.TotalSaved),
	)

	h.logger.Info("completion succeeded",
		slog.String("provider", h.provider.Name()),
		slog.String("model", resp.Model),
		slog.Int("tokens", tokens),
		slog.Duration("latency", time.Since(start)),
	)

	c.JSON(http.StatusOK, domain.NewResult(content, tokens))
}

// sendError sends a failure document with the given HTTP status.
func (h *CompletionHandler) sendError(c *gin.Context, status int, err error) {
	c.JSON(status, domain.NewErrorResult(err))
}

// HandleModels handles GET /v1/models.
// Returns the alias catalog plus the upstream default (OpenAI-compatible list).
func (h *CompletionHandler) HandleModels(c *gin.Context) {
	aliases := adapter.ModelAliases()

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]gin.H, 0, len(names)+1)
	for _, name := range names {
		data = append(data, gin.H{
			"id":       name,
			"object":   "model",
			"created":  1687882411,
			"owned_by": "g4f",
			"upstream": aliases[name],
		})
	}
	data = append(data, gin.H{
		"id":       adapter.DefaultUpstreamModel,
		"object":   "model",
		"created":  1687882411,
		"owned_by": "g4f",
		"upstream": adapter.DefaultUpstreamModel,
	})

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// HandleHealth handles GET /health.
// Reports provider identity, cache counters and the running savings total.
func (h *CompletionHandler) HandleHealth(c *gin.Context) {
	body := gin.H{
		"status":      "healthy",
		"provider":    h.provider.Name(),
		"total_saved": GetTotalSaved(),
	}

	if h.cache != nil {
		hits, misses, size := h.cache.Stats()
		body["cache"] = gin.H{
			"hits":    hits,
			"misses":  misses,
			"entries": size,
		}
	}

	c.JSON(http.StatusOK, body)
}
