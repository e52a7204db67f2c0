// Package llm provides the completion clients used by the assistant core.
// Two backends are supported: a conversational endpoint (OpenAI-compatible
// chat completions) and a reasoning endpoint that returns a split response
// with a separate deliberation trace.
package llm

import (
	"context"
	"io"
	"net/http"
	"time"
)

// MaxErrorBodySize limits how much error response body we read (1MB).
// Prevents memory exhaustion from malformed error responses.
const MaxErrorBodySize = 1 * 1024 * 1024

// readLimitedBody reads up to maxBytes from r, returning the bytes read.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Provider defines the interface for completion backends.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string

	// Available returns true if the provider is configured.
	Available() bool
}

// Reasoner extends Provider with split-response analysis. The reasoning
// backend returns its internal deliberation separately from the final
// content so that downstream code can never conflate the two.
type Reasoner interface {
	Provider
	// Analyze sends a completion request and returns the split response.
	Analyze(ctx context.Context, req *CompletionRequest) (*SplitResponse, error)
}

// CompletionRequest represents a completion request to either backend.
type CompletionRequest struct {
	// Model to use (backend-specific). Empty uses the configured default.
	Model string `json:"model"`

	// SystemPrompt sets the assistant's behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages in the conversation, insertion order significant.
	Messages []Message `json:"messages"`

	// MaxTokens limits response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `json:"temperature,omitempty"`

	// Stream enables streaming responses. The core always sends false.
	Stream bool `json:"stream,omitempty"`
}

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// CompletionResponse contains a conversational backend's response.
type CompletionResponse struct {
	Content          string        `json:"content"`
	Model            string        `json:"model"`
	PromptTokens     int           `json:"prompt_tokens,omitempty"`
	CompletionTokens int           `json:"completion_tokens,omitempty"`
	Duration         time.Duration `json:"duration"`
	FinishReason     string        `json:"finish_reason,omitempty"`
}

// SplitResponse separates the reasoning backend's internal deliberation
// from its final content. ReasoningTrace may be empty; it is used only to
// ground confidence scoring and is never shown to the end user.
type SplitResponse struct {
	ReasoningTrace string        `json:"reasoning_trace"`
	Content        string        `json:"content"`
	Model          string        `json:"model"`
	Duration       time.Duration `json:"duration"`
}

// ProviderConfig contains configuration for a completion backend.
type ProviderConfig struct {
	// Name identifies the backend (conversational, reasoning).
	Name string

	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication.
	APIKey string

	// Model is the default model to use.
	Model string

	// MaxTokens default for responses.
	MaxTokens int

	// Temperature default.
	Temperature float64

	// Timeout for a single API attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts per call (minimum 1).
	MaxRetries int
}

// DefaultConfig returns sensible defaults for a backend.
func DefaultConfig(name string) *ProviderConfig {
	switch name {
	case "conversational":
		return &ProviderConfig{
			Name:        "conversational",
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			MaxRetries:  2,
		}
	case "reasoning":
		return &ProviderConfig{
			Name:        "reasoning",
			Endpoint:    "https://api.deepseek.com/v1",
			Model:       "deepseek-reasoner",
			MaxTokens:   4096,
			Temperature: 0.3,
			Timeout:     45 * time.Second,
			MaxRetries:  2,
		}
	default:
		return &ProviderConfig{
			Name:        name,
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			MaxRetries:  2,
		}
	}
}

// baseProvider provides common functionality for HTTP-based backends.
type baseProvider struct {
	config *ProviderConfig
	client *http.Client
}

// newBaseProvider creates a new base provider with defaults applied.
func newBaseProvider(cfg *ProviderConfig, providerName string) baseProvider {
	if cfg == nil {
		cfg = DefaultConfig(providerName)
	}

	defaults := DefaultConfig(providerName)
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	cfg.Name = providerName

	// No Timeout on the http.Client itself: each attempt is bounded by a
	// per-attempt context in the retrying wrapper so that timeout and
	// transport failures stay distinguishable.
	return baseProvider{
		config: cfg,
		client: &http.Client{},
	}
}

// Name returns the provider identifier.
func (b *baseProvider) Name() string {
	return b.config.Name
}

// Available checks if the API key is configured.
func (b *baseProvider) Available() bool {
	return b.config.APIKey != ""
}
