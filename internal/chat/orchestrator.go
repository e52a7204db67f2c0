package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cruxlog/beta/internal/climber"
	"github.com/cruxlog/beta/internal/enhancer"
	"github.com/cruxlog/beta/internal/evaluator"
	"github.com/cruxlog/beta/internal/llm"
	"github.com/cruxlog/beta/internal/reasoning"
	"github.com/cruxlog/beta/internal/store"
)

// Stage time budgets. Every budget has an explicit, cheaper fallback.
const (
	DefaultInitialTimeout     = 30 * time.Second
	DefaultReasoningTimeout   = 45 * time.Second
	DefaultEnhancementTimeout = 20 * time.Second
)

// UserResolver resolves a user id to an account.
type UserResolver interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// Conversationalist is the conversational client surface the orchestrator
// calls directly.
type Conversationalist interface {
	Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Evaluating decides whether deep reasoning is warranted.
type Evaluating interface {
	Evaluate(ctx context.Context, message string, agg *climber.AggregatedContext, history []llm.Message) evaluator.Result
}

// ReasoningRunner runs the structured analysis.
type ReasoningRunner interface {
	AnalyzeQuery(ctx context.Context, query string, agg *climber.AggregatedContext, history []llm.Message) (*reasoning.Result, error)
}

// Enhancing rewrites reasoning output into conversational language.
type Enhancing interface {
	Enhance(ctx context.Context, content, trace string, agg *climber.AggregatedContext, history []llm.Message, preserveStructure bool) (*enhancer.Result, error)
}

// Config holds the orchestrator's stage budgets.
type Config struct {
	InitialTimeout     time.Duration
	ReasoningTimeout   time.Duration
	EnhancementTimeout time.Duration
}

// DefaultOrchestratorConfig returns the standard stage budgets.
func DefaultOrchestratorConfig() Config {
	return Config{
		InitialTimeout:     DefaultInitialTimeout,
		ReasoningTimeout:   DefaultReasoningTimeout,
		EnhancementTimeout: DefaultEnhancementTimeout,
	}
}

// Stats are per-process orchestrator counters.
type Stats struct {
	TotalRequests     int64
	ConversationalHit int64
	AdvancedHit       int64
	FallbackHit       int64
	ErrorCount        int64
	AverageLatencyMs  float64
}

// Orchestrator sequences the conversational, evaluation, reasoning and
// enhancement stages for one message. Instances are safe for concurrent
// use; all per-request state lives on the stack.
type Orchestrator struct {
	users      UserResolver
	aggregator climber.Aggregator
	formatter  climber.Formatter
	conv       Conversationalist
	eval       Evaluating
	engine     ReasoningRunner
	enhancer   Enhancing
	cfg        Config
	log        zerolog.Logger

	mu    sync.RWMutex
	stats Stats
}

// NewOrchestrator wires the orchestrator. The evaluator, engine and
// enhancer may be nil, which pins every user to the conversational path.
func NewOrchestrator(
	users UserResolver,
	aggregator climber.Aggregator,
	formatter climber.Formatter,
	conv Conversationalist,
	eval Evaluating,
	engine ReasoningRunner,
	enh Enhancing,
	cfg Config,
	log zerolog.Logger,
) *Orchestrator {
	if cfg.InitialTimeout <= 0 {
		cfg.InitialTimeout = DefaultInitialTimeout
	}
	if cfg.ReasoningTimeout <= 0 {
		cfg.ReasoningTimeout = DefaultReasoningTimeout
	}
	if cfg.EnhancementTimeout <= 0 {
		cfg.EnhancementTimeout = DefaultEnhancementTimeout
	}
	return &Orchestrator{
		users:      users,
		aggregator: aggregator,
		formatter:  formatter,
		conv:       conv,
		eval:       eval,
		engine:     engine,
		enhancer:   enh,
		cfg:        cfg,
		log:        log,
	}
}

// ProcessMessage handles one user message end to end. The returned error,
// when non-nil, is always a *Error; no raw failure crosses this boundary.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID, message string, history []Message, customContext string) (resp *Response, err error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := o.log.With().Str("request_id", requestID).Str("user_id", userID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("orchestrator panic recovered")
			resp, err = nil, NewError(KindSystemError, fmt.Sprintf("unexpected failure: %v", r), nil)
		}
		o.record(resp, err, time.Since(start))
	}()

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, WrapError(KindUserError, "unknown user: "+userID, err)
		}
		return nil, WrapError(KindSystemError, "user lookup failed", err)
	}

	agg, err := o.aggregator.Aggregate(ctx, userID, customContext)
	if err != nil {
		return nil, WrapError(KindContextError, err.Error(), err)
	}

	cleaned := historyToLLM(CleanHistory(history, time.Now()))

	if user.Tier != store.TierPremium {
		return o.standardPath(ctx, requestID, message, agg, cleaned, log)
	}

	resp, err = o.premiumPath(ctx, requestID, message, agg, cleaned, log)
	if err == nil {
		return resp, nil
	}

	// A timeout or backend failure in the premium path gets one full
	// retry down the standard path before an error surfaces.
	switch KindOf(err) {
	case KindTimeout, KindAPIError:
		log.Warn().Err(err).Msg("premium path failed, retrying standard path")
		return o.standardPath(ctx, requestID, message, agg, cleaned, log)
	}
	return nil, err
}

// standardPath makes the single conversational call.
func (o *Orchestrator) standardPath(ctx context.Context, requestID, message string, agg *climber.AggregatedContext, history []llm.Message, log zerolog.Logger) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.InitialTimeout)
	defer cancel()

	initial, err := o.conversationalCall(callCtx, message, agg, history)
	if err != nil {
		log.Warn().Err(err).Msg("conversational call failed")
		return nil, FromBackendError("conversational", err)
	}
	return newResponse(requestID, initial, ResponseConversational), nil
}

// convOutcome carries one branch's result without letting its failure
// cancel the sibling branch.
type convOutcome struct {
	text string
	err  error
}

// premiumPath runs the conversational call and the evaluation
// concurrently, then walks the reasoning and enhancement stages, each
// under its own budget with an explicit cheaper fallback.
func (o *Orchestrator) premiumPath(ctx context.Context, requestID, message string, agg *climber.AggregatedContext, history []llm.Message, log zerolog.Logger) (*Response, error) {
	convCtx, convCancel := context.WithTimeout(ctx, o.cfg.InitialTimeout)
	defer convCancel()
	evalCtx, evalCancel := context.WithTimeout(ctx, o.cfg.InitialTimeout)
	defer evalCancel()

	convCh := make(chan convOutcome, 1)
	evalCh := make(chan evaluator.Result, 1)

	go func() {
		text, err := o.conversationalCall(convCtx, message, agg, history)
		convCh <- convOutcome{text: text, err: err}
	}()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Any("panic", r).Msg("evaluation branch panicked")
				// Deliver the degraded verdict immediately; the select
				// below must not wait out the stage budget for it.
				evalCh <- evaluator.Result{NeedsReasoning: false, EvaluationType: evaluator.TypeFallback}
			}
		}()
		evalCh <- o.eval.Evaluate(evalCtx, message, agg, history)
	}()

	// Collect both outcomes with isolated failure capture: neither
	// branch's failure prevents inspecting the other's result.
	conv := <-convCh
	var eval evaluator.Result
	evalOK := false
	select {
	case eval = <-evalCh:
		evalOK = true
	case <-evalCtx.Done():
		evalCancel()
	}

	if conv.err != nil {
		// The conversational response is mandatory; its failure is the
		// overall result regardless of what evaluation decided.
		evalCancel()
		return nil, FromBackendError("conversational", conv.err)
	}

	if !evalOK {
		log.Warn().Msg("evaluation did not complete in time, defaulting to conversational path")
		eval = evaluator.Result{NeedsReasoning: false, EvaluationType: evaluator.TypeFallback}
	}
	log.Debug().
		Bool("needs_reasoning", eval.NeedsReasoning).
		Float64("confidence", eval.Confidence).
		Str("evaluation_type", string(eval.EvaluationType)).
		Msg("evaluation complete")

	if !eval.NeedsReasoning || o.engine == nil {
		return newResponse(requestID, conv.text, ResponseConversational), nil
	}

	reasonCtx, reasonCancel := context.WithTimeout(ctx, o.cfg.ReasoningTimeout)
	defer reasonCancel()
	analysis, err := o.engine.AnalyzeQuery(reasonCtx, message, agg, history)
	if err != nil {
		// Reasoning is optional: its failure degrades to the answer we
		// already have, never to an error the user sees.
		reason := FallbackReasoningError
		if llm.IsTimeout(err) || reasonCtx.Err() != nil {
			reason = FallbackReasoningTimeout
		}
		log.Warn().Err(err).Str("fallback_reason", reason).Msg("reasoning stage degraded")
		resp := newResponse(requestID, conv.text, ResponseConversational)
		resp.FallbackReason = reason
		return resp, nil
	}

	final := analysis.Conclusion
	if o.enhancer != nil {
		enhCtx, enhCancel := context.WithTimeout(ctx, o.cfg.EnhancementTimeout)
		enhanced, err := o.enhancer.Enhance(enhCtx, analysis.Conclusion, analysis.ReasoningTrace, agg, history, true)
		enhCancel()
		if err != nil {
			// Enhancement is cosmetic; the raw conclusion stands in.
			log.Warn().Err(err).Msg("enhancement stage degraded, using raw conclusion")
		} else {
			final = enhanced.EnhancedText
			log.Debug().
				Float64("readability", enhanced.ReadabilityScore).
				Bool("structure_preserved", enhanced.StructurePreserved).
				Msg("enhancement complete")
		}
	}

	resp := newResponse(requestID, final, ResponseAdvanced)
	resp.ReasoningAvailable = true
	resp.RawReasoning = analysis.Conclusion
	return resp, nil
}

const conversationalSystemPrompt = `You are Beta, the climbing assistant for a logbook app.
Answer warmly and concretely, grounded in the climber's context below. Keep answers short
unless the question calls for detail.

%s`

// conversationalCall makes the cheap backend call with the formatted
// context embedded in the system prompt.
func (o *Orchestrator) conversationalCall(ctx context.Context, message string, agg *climber.AggregatedContext, history []llm.Message) (string, error) {
	var contextSummary string
	if o.formatter != nil && agg != nil {
		contextSummary = o.formatter.Format(agg).Conversational
	}

	messages := append(append([]llm.Message{}, history...), llm.Message{
		Role:    "user",
		Content: message,
	})

	resp, err := o.conv.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(conversationalSystemPrompt, contextSummary),
		Messages:     messages,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// record updates the per-process counters.
func (o *Orchestrator) record(resp *Response, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.TotalRequests++
	switch {
	case err != nil:
		o.stats.ErrorCount++
	case resp == nil:
	case resp.FallbackReason != "":
		o.stats.FallbackHit++
	case resp.ResponseType == ResponseAdvanced:
		o.stats.AdvancedHit++
	default:
		o.stats.ConversationalHit++
	}

	total := float64(o.stats.TotalRequests)
	o.stats.AverageLatencyMs = (o.stats.AverageLatencyMs*(total-1) + float64(elapsed.Milliseconds())) / total
}

// Stats returns a copy of the current counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}
