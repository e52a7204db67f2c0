package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReasoningProvider implements Reasoner against a reasoning-capable
// OpenAI-compatible endpoint. The backend returns a reasoning_content field
// alongside the regular content; the two are kept separate end to end.
type ReasoningProvider struct {
	baseProvider
}

// NewReasoningProvider creates a new reasoning backend client.
func NewReasoningProvider(cfg *ProviderConfig) *ReasoningProvider {
	return &ReasoningProvider{
		baseProvider: newBaseProvider(cfg, "reasoning"),
	}
}

// Complete implements Provider. The deliberation trace is discarded; use
// Analyze when the trace is needed.
func (p *ReasoningProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	split, err := p.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CompletionResponse{
		Content:  split.Content,
		Model:    split.Model,
		Duration: split.Duration,
	}, nil
}

// Analyze sends a completion request and returns the split response.
func (p *ReasoningProvider) Analyze(ctx context.Context, req *CompletionRequest) (*SplitResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("reasoning API key not configured")
	}

	start := time.Now()

	chatReq := openAIChatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	}
	if chatReq.Model == "" {
		chatReq.Model = p.config.Model
	}
	if chatReq.MaxTokens == 0 {
		chatReq.MaxTokens = p.config.MaxTokens
	}
	if chatReq.Temperature == 0 {
		chatReq.Temperature = p.config.Temperature
	}

	if req.SystemPrompt != "" {
		chatReq.Messages = append(chatReq.Messages, openAIMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("reasoning backend error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	split := &SplitResponse{
		Model:    chatResp.Model,
		Duration: time.Since(start),
	}
	if len(chatResp.Choices) > 0 {
		split.Content = chatResp.Choices[0].Message.Content
		split.ReasoningTrace = chatResp.Choices[0].Message.ReasoningContent
	}

	return split, nil
}
