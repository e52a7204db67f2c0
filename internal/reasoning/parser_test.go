package reasoning

import (
	"testing"
)

// ============================================================================
// Step-Based Parser Tests
// ============================================================================

func TestParseStepBased(t *testing.T) {
	content := `Step 1: Observations
- 12 routes logged at 7a
- hardest send is 7b+

Analysis: grade plateau over the last two months
- most sends are repeats of known routes

Closing thoughts without a header`

	steps := parseStepBased(content)

	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}

	if steps[0].Type != StepObservations {
		t.Errorf("steps[0].Type = %v, want %v", steps[0].Type, StepObservations)
	}
	if len(steps[0].DataPoints) != 2 {
		t.Errorf("steps[0] data points = %v, want 2", len(steps[0].DataPoints))
	}
	if steps[0].DataPoints[0] != "12 routes logged at 7a" {
		t.Errorf("unexpected data point: %q", steps[0].DataPoints[0])
	}

	if steps[1].Type != StepAnalysis {
		t.Errorf("steps[1].Type = %v, want %v", steps[1].Type, StepAnalysis)
	}

	if steps[2].Type != StepGeneral {
		t.Errorf("steps[2].Type = %v, want %v", steps[2].Type, StepGeneral)
	}
	if steps[2].Description != "Closing thoughts without a header" {
		t.Errorf("steps[2].Description = %q", steps[2].Description)
	}
}

func TestParseStepBased_HeaderlessBlock(t *testing.T) {
	steps := parseStepBased("General pattern in the data\n- volume is trending down")

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	if steps[0].Type != StepGeneral {
		t.Errorf("Type = %v, want %v", steps[0].Type, StepGeneral)
	}
	if steps[0].Description != "General pattern in the data" {
		t.Errorf("Description = %q", steps[0].Description)
	}
	if len(steps[0].DataPoints) != 1 || steps[0].DataPoints[0] != "volume is trending down" {
		t.Errorf("DataPoints = %v", steps[0].DataPoints)
	}
}

func TestParseContent_EmptyInput(t *testing.T) {
	steps := parseContent("", FormatStepBased)

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	if steps[0].Type != StepError {
		t.Errorf("Type = %v, want %v", steps[0].Type, StepError)
	}
	if steps[0].Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", steps[0].Confidence)
	}
	if steps[0].Description != "reasoning output was empty" {
		t.Errorf("Description = %q", steps[0].Description)
	}
}

// ============================================================================
// Analysis Parser Tests
// ============================================================================

func TestParseAnalysis(t *testing.T) {
	content := `Your redpoint grade has stalled at 7a while volume keeps rising.
- 40 sends in 8 weeks
- zero onsight attempts above 6b`

	steps := parseContent(content, FormatAnalysis)

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	if steps[0].Type != StepAnalysis {
		t.Errorf("Type = %v, want %v", steps[0].Type, StepAnalysis)
	}
	if len(steps[0].DataPoints) != 2 {
		t.Errorf("data points = %d, want 2", len(steps[0].DataPoints))
	}
}

// ============================================================================
// Structured Parser Tests
// ============================================================================

func TestParseStructured(t *testing.T) {
	content := `{
		"steps": [
			{"step_type": "observations", "description": "Volume is high", "data_points": ["40 sends"]},
			{"step_type": "comparison", "description": "This season against last", "data_points": []},
			{"step_type": "verdict", "description": "I recommend a deload week", "data_points": []}
		]
	}`

	steps := parseContent(content, FormatStructured)

	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}
	if steps[0].Type != StepObservations {
		t.Errorf("steps[0].Type = %v, want %v", steps[0].Type, StepObservations)
	}
	if steps[1].Type != StepComparison {
		t.Errorf("steps[1].Type = %v, want %v", steps[1].Type, StepComparison)
	}
	// Unknown step_type falls back to inference from the description.
	if steps[2].Type != StepRecommendations {
		t.Errorf("steps[2].Type = %v, want %v", steps[2].Type, StepRecommendations)
	}
}

func TestParseStructured_InvalidJSONFallsBack(t *testing.T) {
	content := `Step 1: Observations
- not json at all`

	steps := parseContent(content, FormatStructured)

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	if steps[0].Type != StepObservations {
		t.Errorf("Type = %v, want %v (step-based fallback)", steps[0].Type, StepObservations)
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestInferStepType(t *testing.T) {
	tests := []struct {
		header   string
		expected StepType
	}{
		{"Step 1: Observations", StepObservations},
		{"Analysis of your pyramid", StepAnalysis},
		{"Comparison with last season", StepComparison},
		{"I recommend more volume", StepRecommendations},
		{"We suggest rest days", StepRecommendations},
		{"Confidence assessment", StepConfidence},
		{"Error in data", StepError},
		{"Some random text", StepGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := inferStepType(tt.header); got != tt.expected {
				t.Errorf("inferStepType(%q) = %v, want %v", tt.header, got, tt.expected)
			}
		})
	}
}

func TestStripBullet(t *testing.T) {
	tests := []struct {
		line     string
		expected string
		ok       bool
	}{
		{"- a data point", "a data point", true},
		{"  - indented point", "indented point", true},
		{"-terse", "terse", true},
		{"no bullet here", "", false},
		{"-", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := stripBullet(tt.line)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("stripBullet(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
