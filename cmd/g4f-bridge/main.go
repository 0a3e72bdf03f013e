// Package main is the entry point for the g4f-bridge.
//
// Without a subcommand the binary runs in pipe mode: it reads one JSON
// request document from stdin, performs the completion and writes one JSON
// result document to stdout, exiting 0 on success and 1 on any failure.
// The serve subcommand exposes the same pipeline over HTTP instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hpn/g4f-bridge/internal/adapter"
	"github.com/hpn/g4f-bridge/internal/config"
	"github.com/hpn/g4f-bridge/internal/domain"
	"github.com/hpn/g4f-bridge/internal/handler"
	"github.com/hpn/g4f-bridge/internal/security"
	"github.com/hpn/g4f-bridge/internal/ui"
)

// version is stamped at build time via -ldflags when releasing.
var version = "1.0.0"

// errPipeFailed signals that the pipeline already wrote its failure document
// and the process just needs to exit non-zero.
var errPipeFailed = errors.New("completion failed")

// providerFactory builds the chat provider from loaded configuration.
// Tests swap it for a stub.
type providerFactory func(cfg *config.Configuration) (adapter.ChatProvider, error)

// bridge carries the wiring both commands share. The streams default to the
// process streams and are only replaced in tests.
type bridge struct {
	configPath  string
	in          io.Reader
	out         io.Writer
	newProvider providerFactory
}

func newBridge() *bridge {
	return &bridge{
		in:          os.Stdin,
		out:         os.Stdout,
		newProvider: buildProvider,
	}
}

func main() {
	b := newBridge()
	if err := newRootCommand(b).Execute(); err != nil {
		if !errors.Is(err, errPipeFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// =========================================================================
// Command tree
// =========================================================================

func newRootCommand(b *bridge) *cobra.Command {
	root := &cobra.Command{
		Use:   "g4f-bridge",
		Short: "Bridge chat completions to free upstream models",
		Long: `g4f-bridge reads a JSON completion request on stdin, forwards it to a
free upstream model and writes a single JSON result document on stdout.

Run "g4f-bridge serve" to expose the same pipeline as an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          b.runPipe,
	}

	root.PersistentFlags().StringVarP(&b.configPath, "config", "c", "", "path to config file")

	root.AddCommand(newServeCommand(b))
	root.AddCommand(newVersionCommand())

	return root
}

func newServeCommand(b *bridge) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge as an HTTP server",
		RunE:  b.runServe,
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			ui.PrintMiniBanner()
			fmt.Fprintf(cmd.OutOrStdout(), "g4f-bridge %s\n", version)
		},
	}
}

// =========================================================================
// Pipe mode
// =========================================================================

func (b *bridge) runPipe(cmd *cobra.Command, _ []string) error {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := b.loadConfig()
	if err != nil {
		b.writeFailure(err)
		return errPipeFailed
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	provider, err := b.newProvider(cfg)
	if err != nil {
		b.writeFailure(err)
		return errPipeFailed
	}

	ctx := cmd.Context()
	if cfg.Upstream.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	pipe := handler.NewPipeHandler(provider,
		handler.WithPipeInput(b.in),
		handler.WithPipeOutput(b.out),
		handler.WithPipeLogger(logger),
	)

	if code := pipe.Run(ctx); code != 0 {
		return errPipeFailed
	}
	return nil
}

// writeFailure emits the failure document for errors that occur before the
// pipeline itself can run, keeping the one-document stdout contract.
func (b *bridge) writeFailure(err error) {
	_ = json.NewEncoder(b.out).Encode(domain.NewErrorResult(err))
}

// =========================================================================
// Serve mode
// =========================================================================

func (b *bridge) runServe(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := b.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting g4f-bridge",
		slog.String("version", version),
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("default_model", cfg.Upstream.DefaultModel),
	)

	provider, err := b.newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}
	provider, err = wrapRateLimit(provider, cfg)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	ui.PrintBanner()
	ui.PrintBridgeInfo(fmt.Sprintf("Upstream provider: %s", provider.Name()))
	if cfg.Cache.Enabled {
		ui.PrintBridgeInfo(fmt.Sprintf("Response cache enabled (TTL %ds)", cfg.Cache.TTLSeconds))
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		ui.PrintBridgeInfo(fmt.Sprintf("Upstream rate limit: %d req/min (burst %d)",
			cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))
	}
	if cfg.Upstream.APIKey == "" {
		logger.Warn("no upstream API key configured; completions will likely fail")
	}

	router := buildEngine(cfg, provider, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("address", addr))
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, cfg.Upstream.DefaultModel, cfg.Upstream.APIKey != "")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGTERM/SIGINT.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
	return nil
}

// buildEngine assembles the gin router with the full middleware chain and
// the completion routes.
func buildEngine(cfg *config.Configuration, provider adapter.ChatProvider, logger *slog.Logger) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var cache *handler.FlashCache
	if cfg.Cache.Enabled {
		cache = handler.NewFlashCache(
			handler.WithCacheTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
			handler.WithCacheLogger(logger),
		)
	}

	opts := []handler.CompletionHandlerOption{handler.WithLogger(logger)}
	if cfg.Upstream.TimeoutSeconds > 0 {
		opts = append(opts, handler.WithUpstreamTimeout(time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second))
	}
	if cache != nil {
		opts = append(opts, handler.WithCache(cache))
	}
	completion := handler.NewCompletionHandler(provider, opts...)

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggingMiddleware(logger))
	if cache != nil {
		router.Use(handler.CacheMiddleware(cache, logger))
	}

	router.POST("/v1/completions", completion.HandleCompletion)
	router.GET("/v1/models", completion.HandleModels)
	router.GET("/health", completion.HandleHealth)

	// Also support without the /v1 prefix for compatibility.
	router.POST("/completions", completion.HandleCompletion)

	return router
}

// =========================================================================
// Shared wiring
// =========================================================================

func (b *bridge) loadConfig() (*config.Configuration, error) {
	if b.configPath != "" {
		return config.GetConfigWithPath(b.configPath)
	}
	return config.GetConfig()
}

// buildProvider constructs the bare OpenRouter-backed provider. Pipe mode
// uses it as is; serve mode wraps it with the rate limiter.
func buildProvider(cfg *config.Configuration) (adapter.ChatProvider, error) {
	return adapter.NewOpenRouterAdapter(
		cfg.Upstream.APIKey,
		adapter.WithDefaultModel(cfg.Upstream.DefaultModel),
		adapter.WithAppTitle(cfg.Upstream.AppTitle),
	), nil
}

// wrapRateLimit throttles upstream calls when a rate limit is configured.
// A limit of zero disables the limiter.
func wrapRateLimit(provider adapter.ChatProvider, cfg *config.Configuration) (adapter.ChatProvider, error) {
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		return provider, nil
	}
	return adapter.NewRateLimitedProvider(
		provider,
		float64(cfg.RateLimit.RequestsPerMinute),
		cfg.RateLimit.Burst,
	)
}

// setupLogger creates the structured logger from config. Output goes to
// stderr by default so pipe mode's stdout stays a single JSON document, and
// every record passes through the redactor so upstream keys never reach the
// logs.
func setupLogger(cfg *config.Configuration) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := io.Writer(os.Stderr)
	if cfg.Logging.OutputPath != "" {
		if f, err := os.OpenFile(cfg.Logging.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Logging.Format == "text" {
		inner = slog.NewTextHandler(out, opts)
	} else {
		inner = slog.NewJSONHandler(out, opts)
	}

	return slog.New(security.NewRedactedHandler(inner))
}
