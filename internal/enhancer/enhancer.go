// Package enhancer rewrites technical reasoning output into accessible
// conversational language. The reasoning trace grounds the rewrite for
// accuracy but is never displayed.
package enhancer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cruxlog/beta/internal/climber"
	"github.com/cruxlog/beta/internal/llm"
)

// Result is the enhancement output.
type Result struct {
	EnhancedText       string         `json:"enhanced_text"`
	StructurePreserved bool           `json:"original_structure_preserved"`
	ReadabilityScore   float64        `json:"readability_score"`
	Metadata           map[string]any `json:"metadata,omitempty"`

	// ReasoningTrace is carried through for diagnostics only.
	ReasoningTrace string `json:"reasoning_trace,omitempty"`
}

// Completer is the slice of the conversational client the enhancer needs.
type Completer interface {
	Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Enhancer performs the rewrite pass.
type Enhancer struct {
	client    Completer
	formatter climber.Formatter
	log       zerolog.Logger
}

// New creates an enhancer.
func New(client Completer, formatter climber.Formatter, log zerolog.Logger) *Enhancer {
	return &Enhancer{client: client, formatter: formatter, log: log}
}

const enhancePrompt = `You are a friendly climbing coach. Rewrite the technical analysis below
into warm, accessible language a climber will enjoy reading. Keep every section header line
(like "Key Observations:" or "Actionable Recommendations:") exactly as written. Keep climbing
terms the climber uses (beta, redpoint, crux) but drop statistics jargon.

The internal notes are for your accuracy only; never quote or mention them.`

const enhanceFallbackPrompt = `Rewrite this climbing analysis in plain, friendly language.
Keep section header lines unchanged.`

const enhanceRecoveryPrompt = `Restate the following for a climber in simple language:`

// Enhance rewrites reasoningContent. On a first failure it retries once
// with a shorter fallback prompt; on a second failure it degrades to a
// generic recovery rewrite rather than raising. The returned result is
// always usable.
func (e *Enhancer) Enhance(ctx context.Context, reasoningContent, reasoningTrace string, agg *climber.AggregatedContext, history []llm.Message, preserveStructure bool) (*Result, error) {
	var contextSummary string
	if e.formatter != nil && agg != nil {
		contextSummary = e.formatter.Format(agg).Conversational
	}

	enhanced, variant, err := e.enhanceWithFallbacks(ctx, reasoningContent, reasoningTrace, contextSummary, history)
	if err != nil {
		return nil, err
	}

	result := &Result{
		EnhancedText:     enhanced,
		ReadabilityScore: readabilityScore(reasoningContent, enhanced),
		ReasoningTrace:   reasoningTrace,
		Metadata:         map[string]any{"prompt_variant": variant},
	}
	if preserveStructure {
		result.StructurePreserved = structurePreserved(reasoningContent, enhanced)
	}
	return result, nil
}

// enhanceWithFallbacks walks the prompt ladder: full prompt, shorter
// fallback, then the generic recovery rewrite. Only when all three fail
// does the error propagate.
func (e *Enhancer) enhanceWithFallbacks(ctx context.Context, content, trace, contextSummary string, history []llm.Message) (string, string, error) {
	user := "Technical analysis:\n" + content
	if contextSummary != "" {
		user += "\n\nClimber context:\n" + contextSummary
	}
	if trace != "" {
		user += "\n\nInternal notes (do not quote):\n" + trace
	}

	enhanced, err := e.complete(ctx, enhancePrompt, user, history)
	if err == nil {
		return enhanced, "full", nil
	}
	e.log.Warn().Err(err).Msg("enhancement failed, retrying with fallback prompt")

	enhanced, err = e.complete(ctx, enhanceFallbackPrompt, "Analysis:\n"+content, nil)
	if err == nil {
		return enhanced, "fallback", nil
	}
	e.log.Warn().Err(err).Msg("fallback enhancement failed, using recovery prompt")

	enhanced, err = e.complete(ctx, enhanceRecoveryPrompt, content, nil)
	if err == nil {
		return enhanced, "recovery", nil
	}
	return "", "", fmt.Errorf("enhancement: %w", err)
}

func (e *Enhancer) complete(ctx context.Context, systemPrompt, userMessage string, history []llm.Message) (string, error) {
	messages := append(append([]llm.Message{}, history...), llm.Message{
		Role:    "user",
		Content: userMessage,
	})
	resp, err := e.client.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Temperature:  0.7,
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("enhancement returned empty content")
	}
	return resp.Content, nil
}
