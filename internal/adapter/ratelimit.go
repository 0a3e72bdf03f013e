// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a ChatProvider with token-bucket rate limiting,
// keeping a burst of concurrent callers from hammering the free upstream.
// There is deliberately no retry here: a completion is attempted exactly
// once after its token is granted.
type RateLimitedProvider struct {
	inner   ChatProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps inner with a token bucket sustaining
// requestsPerMinute with the given burst.
func NewRateLimitedProvider(inner ChatProvider, requestsPerMinute float64, burst int) (*RateLimitedProvider, error) {
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("rate limiter: requestsPerMinute must be > 0")
	}
	if burst <= 0 {
		return nil, fmt.Errorf("rate limiter: burst must be > 0")
	}

	perSecond := rate.Limit(requestsPerMinute / 60.0)

	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(perSecond, burst),
	}, nil
}

// Name delegates to the inner provider.
func (r *RateLimitedProvider) Name() string {
	return r.inner.Name()
}

// ChatCompletion waits for a rate limit token then calls the inner provider.
// A context cancelled while waiting surfaces as an error without the inner
// provider ever being called.
func (r *RateLimitedProvider) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ChatResponse{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	return r.inner.ChatCompletion(ctx, req)
}
