package reasoning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cruxlog/beta/internal/llm"
)

// mockAnalyzer returns a canned split response or error.
type mockAnalyzer struct {
	resp *llm.SplitResponse
	err  error
	last *llm.CompletionRequest
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req *llm.CompletionRequest) (*llm.SplitResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ============================================================================
// Plan Tests
// ============================================================================

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		dimensions []StepType
		depth      Depth
	}{
		{
			name:       "no keywords gets focused analysis",
			query:      "hello there",
			dimensions: []StepType{StepAnalysis},
			depth:      DepthFocused,
		},
		{
			name:       "single dimension stays focused",
			query:      "how is my recent progress",
			dimensions: []StepType{StepObservations},
			depth:      DepthFocused,
		},
		{
			name:       "multiple dimensions widen to comprehensive",
			query:      "why am I stuck and what should I train next",
			dimensions: []StepType{StepAnalysis, StepRecommendations},
			depth:      DepthComprehensive,
		},
		{
			name:       "all four dimensions",
			query:      "analyze my recent progress, suggest what to train, and how confident are you",
			dimensions: []StepType{StepObservations, StepAnalysis, StepRecommendations, StepConfidence},
			depth:      DepthComprehensive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := buildPlan(tt.query)

			if plan.Depth != tt.depth {
				t.Errorf("Depth = %v, want %v", plan.Depth, tt.depth)
			}
			if len(plan.Dimensions) != len(tt.dimensions) {
				t.Fatalf("Dimensions = %v, want %v", plan.Dimensions, tt.dimensions)
			}
			for i, want := range tt.dimensions {
				if plan.Dimensions[i] != want {
					t.Errorf("Dimensions[%d] = %v, want %v", i, plan.Dimensions[i], want)
				}
			}
		})
	}
}

// ============================================================================
// Confidence Scoring Tests
// ============================================================================

func TestScoreStep_Base(t *testing.T) {
	tests := []struct {
		name     string
		step     Step
		expected float64
	}{
		{
			name:     "neutral step sits at the base",
			step:     Step{Description: "some finding"},
			expected: 0.5,
		},
		{
			name: "evidence density raises the score",
			step: Step{
				Description: "volume summary",
				DataPoints:  []string{"40 sends", "8 weeks", "7a average"},
			},
			expected: 0.9,
		},
		{
			name:     "certainty vocabulary raises the score",
			step:     Step{Description: "the data clearly shows a plateau"},
			expected: 0.7,
		},
		{
			name:     "hedging lowers the score",
			step:     Step{Description: "this might possibly be fatigue"},
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreStep(tt.step, "")
			if !almostEqual(got, tt.expected) {
				t.Errorf("scoreStep() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScoreStep_TraceAlignment(t *testing.T) {
	step := Step{Description: "endurance plateau"}

	// Every step word appears in the trace: full alignment.
	aligned := scoreStep(step, "the climber shows a clear endurance plateau across sessions")
	if !almostEqual(aligned, 0.7*0.5+0.3*1.0) {
		t.Errorf("aligned score = %v, want %v", aligned, 0.65)
	}

	// Nothing overlaps: the blend pulls the score down.
	unaligned := scoreStep(step, "completely unrelated deliberation about weather")
	if !almostEqual(unaligned, 0.7*0.5) {
		t.Errorf("unaligned score = %v, want %v", unaligned, 0.35)
	}

	if aligned <= unaligned {
		t.Error("trace alignment should raise the score")
	}
}

// ============================================================================
// Synthesis Tests
// ============================================================================

func TestSynthesize(t *testing.T) {
	steps := []Step{
		{Type: StepObservations, Description: "Strong volume", Confidence: 0.9},
		{Type: StepObservations, Description: "Thin evidence", Confidence: 0.4},
		{Type: StepAnalysis, Description: "Plateau at 7a", Confidence: 0.8},
		{Type: StepGeneral, Description: "Aside", Confidence: 0.6,
			DataPoints: []string{"I recommend two rest days"}},
	}

	conclusion, confidence := synthesize(steps)

	if !strings.Contains(conclusion, "Strong volume") {
		t.Error("high-confidence observation missing from conclusion")
	}
	if strings.Contains(conclusion, "Thin evidence") {
		t.Error("low-confidence observation leaked into conclusion")
	}
	if !strings.Contains(conclusion, "Plateau at 7a") {
		t.Error("analysis step missing from conclusion")
	}
	if !strings.Contains(conclusion, "(high confidence)") {
		t.Error("confidence phrase missing")
	}
	if !strings.Contains(conclusion, "- I recommend two rest days") {
		t.Error("recommendation data point missing")
	}
	if confidence <= 0 || confidence > 1 {
		t.Errorf("overall confidence = %v, want in (0, 1]", confidence)
	}
}

func TestStepWeight(t *testing.T) {
	tests := []struct {
		stepType StepType
		expected float64
	}{
		{StepAnalysis, 1.0},
		{StepComparison, 0.8},
		{StepRecommendations, 0.7},
		{StepError, 0.0},
		{StepObservations, 0.5},
		{StepGeneral, 0.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.stepType), func(t *testing.T) {
			if got := stepWeight(tt.stepType); got != tt.expected {
				t.Errorf("stepWeight(%v) = %v, want %v", tt.stepType, got, tt.expected)
			}
		})
	}
}

func TestOverallConfidence(t *testing.T) {
	steps := []Step{
		{Type: StepAnalysis, Confidence: 0.8},
		{Type: StepRecommendations, Confidence: 0.5},
		{Type: StepError, Confidence: 0.0},
	}

	got := overallConfidence(steps)
	want := (1.0*0.8 + 0.7*0.5) / (1.0 + 0.7)
	if !almostEqual(got, want) {
		t.Errorf("overallConfidence = %v, want %v", got, want)
	}

	if overallConfidence([]Step{{Type: StepError}}) != 0 {
		t.Error("error-only steps should yield zero confidence")
	}
}

// ============================================================================
// Engine Tests
// ============================================================================

func TestEngine_AnalyzeQuery(t *testing.T) {
	mock := &mockAnalyzer{
		resp: &llm.SplitResponse{
			ReasoningTrace: "deliberation about plateau volume and grades",
			Content: `Step 1: Observations
- 40 sends at 7a in 8 weeks

Analysis: volume plateau without grade progression
- I recommend adding limit bouldering`,
			Model: "deepseek-reasoner",
		},
	}
	engine := NewEngine(mock, nil, zerolog.Nop())

	result, err := engine.AnalyzeQuery(context.Background(), "why am I stuck at 7a?", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Conclusion == "" {
		t.Error("expected non-empty conclusion")
	}
	if len(result.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(result.Steps))
	}
	for i, step := range result.Steps {
		if step.Confidence <= 0 {
			t.Errorf("steps[%d].Confidence = %v, want > 0", i, step.Confidence)
		}
	}
	if result.ReasoningTrace == "" {
		t.Error("reasoning trace not carried through")
	}
	if result.Metadata["model"] != "deepseek-reasoner" {
		t.Errorf("Metadata[model] = %v", result.Metadata["model"])
	}
	if result.Metadata["plan_depth"] != string(DepthFocused) {
		t.Errorf("Metadata[plan_depth] = %v", result.Metadata["plan_depth"])
	}

	if mock.last == nil || !strings.Contains(mock.last.Messages[len(mock.last.Messages)-1].Content, "why am I stuck at 7a?") {
		t.Error("query missing from analysis prompt")
	}
}

func TestEngine_AnalyzeQuery_BackendError(t *testing.T) {
	mock := &mockAnalyzer{err: fmt.Errorf("boom")}
	engine := NewEngine(mock, nil, zerolog.Nop())

	_, err := engine.AnalyzeQuery(context.Background(), "anything", nil, nil)
	if err == nil {
		t.Fatal("expected error from failed backend call")
	}
}

func TestEngine_AnalyzeQuery_SynthesisFallback(t *testing.T) {
	raw := `General notes
- nothing actionable here`
	mock := &mockAnalyzer{resp: &llm.SplitResponse{Content: raw}}
	engine := NewEngine(mock, nil, zerolog.Nop())

	result, err := engine.AnalyzeQuery(context.Background(), "hello", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nothing cleared the synthesis filters, so the raw content survives.
	if result.Conclusion != raw {
		t.Errorf("Conclusion = %q, want raw content fallback", result.Conclusion)
	}
}
