package reasoning

import (
	"fmt"
	"strings"
)

// Confidence buckets used when describing steps in the conclusion.
const (
	highConfidence   = 0.8
	mediumConfidence = 0.5
)

// synthesize assembles the conclusion text and the overall confidence
// from scored steps. The conclusion keeps only material worth surfacing:
// high-confidence observations, every analysis and comparison step, and
// any data point that carries a recommendation.
func synthesize(steps []Step) (string, float64) {
	var sections []string

	for _, step := range steps {
		switch step.Type {
		case StepObservations:
			if step.Confidence >= 0.7 {
				sections = append(sections, renderStep(step))
			}
		case StepAnalysis, StepComparison:
			sections = append(sections, renderStep(step))
		}

		for _, point := range step.DataPoints {
			if strings.Contains(strings.ToLower(point), "recommend") {
				sections = append(sections, "- "+point)
			}
		}
	}

	return strings.Join(sections, "\n"), overallConfidence(steps)
}

// renderStep formats one step with its confidence-level phrase.
func renderStep(step Step) string {
	var b strings.Builder
	b.WriteString(step.Description)
	for _, point := range step.DataPoints {
		b.WriteString("\n- ")
		b.WriteString(point)
	}
	b.WriteString(fmt.Sprintf("\n(%s confidence)", confidenceLevel(step.Confidence)))
	return b.String()
}

// confidenceLevel buckets a score into high/medium/low.
func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= highConfidence:
		return "high"
	case confidence >= mediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// stepWeight returns the synthesis weight for a step type. Analysis
// carries the verdict, recommendations matter slightly less, error steps
// contribute nothing.
func stepWeight(stepType StepType) float64 {
	switch stepType {
	case StepAnalysis:
		return 1.0
	case StepComparison:
		return 0.8
	case StepRecommendations:
		return 0.7
	case StepError:
		return 0.0
	default:
		return 0.5
	}
}

// overallConfidence is the weighted mean of step confidences.
func overallConfidence(steps []Step) float64 {
	var weighted, total float64
	for _, step := range steps {
		w := stepWeight(step.Type)
		weighted += w * step.Confidence
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
