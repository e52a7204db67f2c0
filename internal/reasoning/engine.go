package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cruxlog/beta/internal/climber"
	"github.com/cruxlog/beta/internal/llm"
)

// Analyzer is the slice of the reasoning client the engine needs.
type Analyzer interface {
	Analyze(ctx context.Context, req *llm.CompletionRequest) (*llm.SplitResponse, error)
}

// Engine runs the multi-step analysis pipeline. Each call is a
// straight-line pipeline with no state held between calls; partial
// failures degrade to an error-typed step rather than propagating.
type Engine struct {
	client    Analyzer
	formatter climber.Formatter
	format    Format
	log       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFormat selects the parser for the backend's content.
func WithFormat(format Format) Option {
	return func(e *Engine) { e.format = format }
}

// NewEngine creates a reasoning engine.
func NewEngine(client Analyzer, formatter climber.Formatter, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		client:    client,
		formatter: formatter,
		format:    FormatStepBased,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const analysisSystemPrompt = `You are an expert climbing coach analyzing a climber's logbook.
Work through the question rigorously, grounded in the climber's actual data.
Structure your answer as steps separated by blank lines. Start each step with a header line
like "Step 1: Observations" or "Analysis: ...", and list supporting evidence as "-" bullet
lines under it. Be specific: cite grades, counts, and dates from the context where possible.`

// AnalyzeQuery runs the full pipeline for one query. It returns an error
// only when the backend call itself fails; everything after that degrades
// gracefully.
func (e *Engine) AnalyzeQuery(ctx context.Context, query string, agg *climber.AggregatedContext, history []llm.Message) (*Result, error) {
	enriched := e.prepareContext(agg)
	plan := buildPlan(query)

	prompt := buildAnalysisPrompt(query, enriched, plan)
	messages := append(append([]llm.Message{}, history...), llm.Message{
		Role:    "user",
		Content: prompt,
	})

	split, err := e.client.Analyze(ctx, &llm.CompletionRequest{
		SystemPrompt: analysisSystemPrompt,
		Messages:     messages,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoning call: %w", err)
	}

	steps := parseContent(split.Content, e.format)
	for i := range steps {
		steps[i].Confidence = scoreStep(steps[i], split.ReasoningTrace)
	}

	conclusion, confidence := synthesize(steps)
	if conclusion == "" {
		// Nothing cleared the synthesis filters; fall back to the raw
		// content so the caller always has something to enhance.
		conclusion = strings.TrimSpace(split.Content)
	}

	e.log.Debug().
		Int("steps", len(steps)).
		Str("depth", string(plan.Depth)).
		Float64("confidence", confidence).
		Msg("reasoning pipeline complete")

	return &Result{
		Conclusion:     conclusion,
		Steps:          steps,
		Confidence:     confidence,
		ReasoningTrace: split.ReasoningTrace,
		Metadata: map[string]any{
			"plan_depth":      string(plan.Depth),
			"plan_dimensions": dimensionNames(plan),
			"model":           split.Model,
		},
	}, nil
}

// prepareContext formats the aggregated context and enriches it with
// grade comparisons and a recent-performance summary.
func (e *Engine) prepareContext(agg *climber.AggregatedContext) string {
	if e.formatter == nil || agg == nil {
		return ""
	}
	formatted := e.formatter.Format(agg)

	var b strings.Builder
	b.WriteString(formatted.Conversational)

	if metrics, ok := formatted.Structured["performance_metrics"].(map[string]any); ok {
		if hardest, ok := metrics["hardest_grade"].(string); ok && hardest != "" {
			b.WriteString("\nGrade reference: hardest send ")
			b.WriteString(hardest)
			b.WriteString(" (")
			b.WriteString(climber.ToYDS(hardest))
			b.WriteString(" YDS).")
		}
		if recent, ok := metrics["recent_sends"].([]map[string]any); ok && len(recent) > 0 {
			b.WriteString("\nRecent sends:")
			for i, send := range recent {
				if i >= 5 {
					break
				}
				b.WriteString(fmt.Sprintf(" %v (%v, %v);", send["route"], send["grade"], send["style"]))
			}
		}
	}

	return b.String()
}

// buildAnalysisPrompt assembles the single prompt for the analysis call.
func buildAnalysisPrompt(query, enrichedContext string, plan Plan) string {
	var b strings.Builder
	if enrichedContext != "" {
		b.WriteString("Climber context:\n")
		b.WriteString(enrichedContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nCover these dimensions: ")
	b.WriteString(strings.Join(dimensionNames(plan), ", "))
	b.WriteString(".")
	if plan.Depth == DepthComprehensive {
		b.WriteString(" Give a comprehensive analysis across all of them.")
	} else {
		b.WriteString(" Keep the analysis focused.")
	}
	return b.String()
}

func dimensionNames(plan Plan) []string {
	names := make([]string, 0, len(plan.Dimensions))
	for _, dim := range plan.Dimensions {
		names = append(names, string(dim))
	}
	return names
}
