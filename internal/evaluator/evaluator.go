// Package evaluator decides, per message, whether the expensive reasoning
// stage is warranted. It combines a fast local heuristic pass with an
// optional model-based pass on the conversational backend, mirroring a
// fast/slow classification split.
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cruxlog/beta/internal/climber"
	"github.com/cruxlog/beta/internal/llm"
)

const (
	// HeuristicThreshold is the confidence at which the heuristic pass is
	// conclusive on its own.
	HeuristicThreshold = 0.6

	// ModelThreshold is the confidence a model-based pass needs before it
	// may influence the combined result.
	ModelThreshold = 0.8

	// Sentinel strings the evaluation prompt asks the model to emit.
	SentinelAdvanced = "advanced reasoning needed"
	SentinelNormal   = "normal response sufficient"
)

// EvaluationType records which stage produced a result.
type EvaluationType string

const (
	TypeHeuristic EvaluationType = "heuristic"
	TypeModel     EvaluationType = "model"
	TypeHybrid    EvaluationType = "hybrid"
	TypeFallback  EvaluationType = "fallback"
)

// Result is the evaluator's verdict for one message. Immutable once
// returned.
type Result struct {
	NeedsReasoning bool           `json:"needs_reasoning"`
	Confidence     float64        `json:"confidence"`
	Triggers       []string       `json:"triggers,omitempty"`
	EvaluationType EvaluationType `json:"evaluation_type"`
}

// Completer is the slice of the conversational client the evaluator needs.
type Completer interface {
	Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Evaluator runs the hybrid evaluation. Its heuristics are fixed at
// construction; build a new Evaluator to reconfigure.
type Evaluator struct {
	heuristics Heuristics
	client     Completer
	formatter  climber.Formatter
	hybrid     bool
	log        zerolog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithHeuristics replaces the built-in category patterns.
func WithHeuristics(h Heuristics) Option {
	return func(e *Evaluator) { e.heuristics = h }
}

// WithHybrid enables or disables the model-based pass.
func WithHybrid(enabled bool) Option {
	return func(e *Evaluator) { e.hybrid = enabled }
}

// New creates an evaluator. A nil client disables the model-based pass.
func New(client Completer, formatter climber.Formatter, log zerolog.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		heuristics: DefaultHeuristics(),
		client:     client,
		formatter:  formatter,
		hybrid:     client != nil,
		log:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.hybrid = false
	}
	return e
}

// Evaluate runs the two-stage hybrid evaluation. It never returns an
// error: a failed model pass degrades to the heuristic result, and a total
// failure returns the safe default toward the cheap path.
func (e *Evaluator) Evaluate(ctx context.Context, message string, agg *climber.AggregatedContext, history []llm.Message) Result {
	heuristic, ok := e.heuristicPass(message)
	if !ok {
		e.log.Warn().Msg("heuristic pass unavailable, defaulting to conversational path")
		return fallbackResult()
	}

	// A confident heuristic verdict short-circuits the model pass.
	if heuristic.Confidence >= HeuristicThreshold {
		return heuristic
	}

	if !e.hybrid {
		return heuristic
	}

	model, err := e.modelPass(ctx, message, agg, history)
	if err != nil {
		e.log.Warn().Err(err).Msg("model-based evaluation failed, using heuristic result")
		return heuristic
	}

	if model.Confidence >= ModelThreshold {
		return combine(heuristic, model)
	}
	return heuristic
}

// heuristicPass scans the message against the category patterns. The
// second return value is false only when the evaluator has no categories
// to scan, which makes every verdict meaningless.
func (e *Evaluator) heuristicPass(message string) (Result, bool) {
	if len(e.heuristics.Categories) == 0 {
		return Result{}, false
	}
	confidence, triggers := e.heuristics.scan(message)
	return Result{
		NeedsReasoning: confidence >= HeuristicThreshold,
		Confidence:     confidence,
		Triggers:       triggers,
		EvaluationType: TypeHeuristic,
	}, true
}

const evaluationPrompt = `You decide how much effort an AI climbing coach should spend on a message.
Consider the climber's context and the message. If the message asks for multi-step planning,
performance analysis, or anything needing their logbook data to answer well, respond with exactly:
%s
Otherwise respond with exactly:
%s
Respond with only one of those two phrases.`

// modelPass asks the conversational backend to emit one of the two
// sentinel phrases. Confidence is 1.0 on an exact sentinel, 0.5 when the
// sentinel merely appears in a longer answer.
func (e *Evaluator) modelPass(ctx context.Context, message string, agg *climber.AggregatedContext, history []llm.Message) (Result, error) {
	var contextSummary string
	if e.formatter != nil && agg != nil {
		contextSummary = e.formatter.Format(agg).Conversational
	}

	userMessage := message
	if contextSummary != "" {
		userMessage = "Context: " + contextSummary + "\n\nMessage: " + message
	}

	messages := append(append([]llm.Message{}, history...), llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	resp, err := e.client.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(evaluationPrompt, SentinelAdvanced, SentinelNormal),
		Messages:     messages,
		MaxTokens:    16,
		Temperature:  0.0,
	})
	if err != nil {
		return Result{}, err
	}

	output := strings.ToLower(strings.TrimSpace(resp.Content))
	output = strings.Trim(output, `."'`)

	switch output {
	case SentinelAdvanced:
		return Result{NeedsReasoning: true, Confidence: 1.0, EvaluationType: TypeModel}, nil
	case SentinelNormal:
		return Result{NeedsReasoning: false, Confidence: 1.0, EvaluationType: TypeModel}, nil
	}
	if strings.Contains(output, SentinelAdvanced) {
		return Result{NeedsReasoning: true, Confidence: 0.5, EvaluationType: TypeModel}, nil
	}
	if strings.Contains(output, SentinelNormal) {
		return Result{NeedsReasoning: false, Confidence: 0.5, EvaluationType: TypeModel}, nil
	}
	return Result{}, fmt.Errorf("evaluation output matched no sentinel: %q", resp.Content)
}

// combine merges a heuristic and a confident model result. Agreement
// keeps the higher confidence and the union of triggers; disagreement
// returns whichever result is more confident, unmodified.
func combine(heuristic, model Result) Result {
	if heuristic.NeedsReasoning == model.NeedsReasoning {
		confidence := heuristic.Confidence
		if model.Confidence > confidence {
			confidence = model.Confidence
		}
		return Result{
			NeedsReasoning: heuristic.NeedsReasoning,
			Confidence:     confidence,
			Triggers:       heuristic.Triggers,
			EvaluationType: TypeHybrid,
		}
	}
	if model.Confidence > heuristic.Confidence {
		return model
	}
	return heuristic
}

// fallbackResult is the safe default toward the cheap path when nothing
// else produced a verdict.
func fallbackResult() Result {
	return Result{
		NeedsReasoning: false,
		Confidence:     1.0,
		EvaluationType: TypeFallback,
	}
}
