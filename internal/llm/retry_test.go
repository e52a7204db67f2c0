package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProvider scripts per-attempt outcomes for the retrying client.
type fakeProvider struct {
	name     string
	failures int32
	err      error
	block    bool
	content  string
	calls    int32
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("transient failure")
	}
	return &CompletionResponse{Content: f.content}, nil
}

func (f *fakeProvider) Analyze(ctx context.Context, req *CompletionRequest) (*SplitResponse, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &SplitResponse{Content: resp.Content, ReasoningTrace: "trace"}, nil
}

func testConfig(timeout time.Duration, retries int) *ProviderConfig {
	return &ProviderConfig{
		Name:       "conversational",
		Timeout:    timeout,
		MaxRetries: retries,
	}
}

// ============================================================================
// Retry Tests
// ============================================================================

func TestClient_Complete_RetriesOnce(t *testing.T) {
	provider := &fakeProvider{name: "conversational", failures: 1, content: "ok"}
	client := NewClient(provider, testConfig(time.Second, 2), nil, zerolog.Nop())

	resp, err := client.Complete(context.Background(), &CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if provider.calls != 2 {
		t.Errorf("calls = %d, want 2", provider.calls)
	}
}

func TestClient_Complete_ExhaustsRetries(t *testing.T) {
	provider := &fakeProvider{name: "conversational", failures: 10}
	client := NewClient(provider, testConfig(time.Second, 2), nil, zerolog.Nop())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if provider.calls != 2 {
		t.Errorf("calls = %d, want 2", provider.calls)
	}
	if IsTimeout(err) {
		t.Error("transport failure must not classify as timeout")
	}
}

func TestClient_Complete_AttemptTimeout(t *testing.T) {
	provider := &fakeProvider{name: "conversational", block: true}
	client := NewClient(provider, testConfig(20*time.Millisecond, 2), nil, zerolog.Nop())

	start := time.Now()
	_, err := client.Complete(context.Background(), &CompletionRequest{})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("timeout not classified as timeout: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("calls = %d, want 2 (each attempt gets its own deadline)", provider.calls)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("took %v, want well under the parent-free ceiling", elapsed)
	}
}

func TestClient_Complete_ParentCancellation(t *testing.T) {
	provider := &fakeProvider{name: "conversational", block: true}
	client := NewClient(provider, testConfig(time.Minute, 2), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Complete(ctx, &CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	// A cancelled parent must not burn the remaining attempts.
	if provider.calls != 1 {
		t.Errorf("calls = %d, want 1", provider.calls)
	}
}

func TestClient_Analyze(t *testing.T) {
	provider := &fakeProvider{name: "reasoning", content: "deep answer"}
	client := NewClient(provider, &ProviderConfig{Name: "reasoning", Timeout: time.Second, MaxRetries: 2}, nil, zerolog.Nop())

	resp, err := client.Analyze(context.Background(), &CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "deep answer" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.ReasoningTrace == "" {
		t.Error("ReasoningTrace missing")
	}
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", errors.Join(errors.New("attempt 1"), context.DeadlineExceeded), true},
		{"cancellation", context.Canceled, false},
		{"transport failure", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
