// Package handler provides the bridge's request pipelines.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hpn/g4f-bridge/internal/domain"
	"github.com/hpn/g4f-bridge/internal/ui"
)

// CORSMiddleware returns a middleware that enables permissive CORS.
// This allows web applications to call the bridge directly.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware tags every request with an identifier. An incoming
// X-Request-ID header is honored so callers can correlate their own logs;
// otherwise a fresh UUID is generated. The identifier is echoed back in the
// response headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header("X-Request-ID", id)

		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details in JSON format.
// It picks up the request id and the requested model from the context.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		// Get request id from context (set by RequestIDMiddleware)
		requestID, _ := c.Get("request_id")
		id, _ := requestID.(string)

		// Get the requested model (set by CompletionHandler)
		model, _ := c.Get("model_requested")
		modelName, _ := model.(string)

		// Get cache status (set by CacheMiddleware)
		cacheHit, _ := c.Get("cache_hit")
		hit, _ := cacheHit.(bool)

		logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", id),
			slog.String("model", modelName),
			slog.Bool("cache_hit", hit),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		ui.PrintRequest(c.Request.Method, path, c.Writer.Status(), latency, modelName)
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics.
// It logs the error and returns a 500 response in the bridge's error shape.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					domain.NewErrorResult(errors.New("internal server error")))
			}
		}()

		c.Next()
	}
}
