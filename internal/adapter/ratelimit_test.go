package adapter

import (
	"context"
	"errors"
	"testing"
)

// fakeProvider is a minimal ChatProvider for decorator tests.
type fakeProvider struct {
	resp  ChatResponse
	err   error
	calls int
}

func (f *fakeProvider) ChatCompletion(_ context.Context, _ ChatRequest) (ChatResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeProvider) Name() string {
	return "fake"
}

func TestNewRateLimitedProvider_Validation(t *testing.T) {
	inner := &fakeProvider{}

	if _, err := NewRateLimitedProvider(inner, 0, 5); err == nil {
		t.Error("expected error for zero requestsPerMinute")
	}
	if _, err := NewRateLimitedProvider(inner, -1, 5); err == nil {
		t.Error("expected error for negative requestsPerMinute")
	}
	if _, err := NewRateLimitedProvider(inner, 20, 0); err == nil {
		t.Error("expected error for zero burst")
	}
	if _, err := NewRateLimitedProvider(inner, 20, 5); err != nil {
		t.Errorf("valid config returned error: %v", err)
	}
}

func TestRateLimitedProvider_Delegates(t *testing.T) {
	inner := &fakeProvider{resp: ChatResponse{Model: "openrouter/free"}}

	limited, err := NewRateLimitedProvider(inner, 600, 10)
	if err != nil {
		t.Fatalf("NewRateLimitedProvider() error = %v", err)
	}

	if limited.Name() != "fake" {
		t.Errorf("Name() = %s, want fake (delegated)", limited.Name())
	}

	resp, err := limited.ChatCompletion(context.Background(), ChatRequest{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if resp.Model != "openrouter/free" {
		t.Errorf("Model = %s, want openrouter/free", resp.Model)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestRateLimitedProvider_PropagatesInnerError(t *testing.T) {
	inner := &fakeProvider{err: errors.New("upstream down")}

	limited, err := NewRateLimitedProvider(inner, 600, 10)
	if err != nil {
		t.Fatalf("NewRateLimitedProvider() error = %v", err)
	}

	if _, err := limited.ChatCompletion(context.Background(), ChatRequest{}); err == nil {
		t.Error("expected inner provider error to propagate")
	}
}

func TestRateLimitedProvider_CancelledContext(t *testing.T) {
	inner := &fakeProvider{}

	// Burst of 1: the first call drains the bucket, the second must wait and
	// should fail fast on an already-cancelled context.
	limited, err := NewRateLimitedProvider(inner, 1, 1)
	if err != nil {
		t.Fatalf("NewRateLimitedProvider() error = %v", err)
	}

	if _, err := limited.ChatCompletion(context.Background(), ChatRequest{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := limited.ChatCompletion(ctx, ChatRequest{}); err == nil {
		t.Error("expected wait error on cancelled context")
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 (second call blocked by limiter)", inner.calls)
	}
}
