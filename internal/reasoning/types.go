// Package reasoning runs the structured multi-step analysis behind
// advanced responses: it plans which dimensions a query needs, executes a
// single split-response call against the reasoning backend, parses the
// content into steps, scores each step's confidence against the
// deliberation trace, and synthesizes a conclusion.
package reasoning

// StepType categorizes a parsed reasoning step.
type StepType string

const (
	StepObservations    StepType = "observations"
	StepAnalysis        StepType = "analysis"
	StepComparison      StepType = "comparison"
	StepRecommendations StepType = "recommendations"
	StepConfidence      StepType = "confidence"
	StepGeneral         StepType = "general"
	StepError           StepType = "error"
)

// Step is a single unit of parsed reasoning output.
type Step struct {
	Type        StepType `json:"step_type"`
	Description string   `json:"description"`
	DataPoints  []string `json:"data_points,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// Result is the engine's output for one query.
type Result struct {
	Conclusion string         `json:"conclusion"`
	Steps      []Step         `json:"steps"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// ReasoningTrace is the backend's internal deliberation. It grounds
	// confidence scoring and is never shown verbatim to the user.
	ReasoningTrace string `json:"reasoning_trace,omitempty"`
}

// Depth describes how wide an analysis plan is.
type Depth string

const (
	DepthFocused       Depth = "focused"
	DepthComprehensive Depth = "comprehensive"
)

// Plan names the dimensions one analysis call should cover.
type Plan struct {
	Dimensions []StepType `json:"dimensions"`
	Depth      Depth      `json:"depth"`
}

// Format selects which parser interprets the backend's content.
type Format string

const (
	// FormatStepBased splits on blank lines and recognizes Step/Analysis
	// headers. This is the default.
	FormatStepBased Format = "step_based"
	// FormatAnalysis treats the first line as the description and bullet
	// lines as data points.
	FormatAnalysis Format = "analysis"
	// FormatStructured expects a JSON object with a steps array, falling
	// back to step-based parsing when the JSON is invalid.
	FormatStructured Format = "structured"
)
