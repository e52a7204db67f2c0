package reasoning

import (
	"encoding/json"
	"strings"
)

// parseContent interprets the backend's content half into steps using the
// parser selected by format. Unparseable input yields a single error-typed
// step; the parser never fails outright.
func parseContent(content string, format Format) []Step {
	var steps []Step
	switch format {
	case FormatAnalysis:
		steps = parseAnalysis(content)
	case FormatStructured:
		steps = parseStructured(content)
	default:
		steps = parseStepBased(content)
	}

	if len(steps) == 0 {
		return []Step{errorStep(content)}
	}
	return steps
}

// errorStep wraps unparseable input so downstream stages keep working.
func errorStep(content string) Step {
	description := "unable to parse reasoning output"
	if trimmed := strings.TrimSpace(content); trimmed == "" {
		description = "reasoning output was empty"
	}
	return Step{
		Type:        StepError,
		Description: description,
		Confidence:  0,
	}
}

// parseStepBased splits content on blank lines into blocks. Each block's
// first line becomes the step description and types the step; following
// "-" lines become bullet data points.
func parseStepBased(content string) []Step {
	var steps []Step

	for _, block := range strings.Split(content, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}

		header := lines[0]
		var dataPoints []string
		for _, line := range lines[1:] {
			if bullet, ok := stripBullet(line); ok {
				dataPoints = append(dataPoints, bullet)
			}
		}

		steps = append(steps, Step{
			Type:        inferStepType(header),
			Description: strings.TrimSpace(strings.TrimPrefix(header, "-")),
			DataPoints:  dataPoints,
		})
	}

	return steps
}

// parseAnalysis treats the first line as the description and every bullet
// line after it as a data point, producing a single analysis step.
func parseAnalysis(content string) []Step {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return nil
	}

	step := Step{
		Type:        StepAnalysis,
		Description: lines[0],
	}
	for _, line := range lines[1:] {
		if bullet, ok := stripBullet(line); ok {
			step.DataPoints = append(step.DataPoints, bullet)
		}
	}
	return []Step{step}
}

// structuredPayload is the JSON shape the structured parser accepts.
type structuredPayload struct {
	Steps []struct {
		Type        string   `json:"step_type"`
		Description string   `json:"description"`
		DataPoints  []string `json:"data_points"`
	} `json:"steps"`
}

// parseStructured decodes a JSON object with a steps array. Invalid JSON
// falls back to step-based parsing of the same text.
func parseStructured(content string) []Step {
	var payload structuredPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil || len(payload.Steps) == 0 {
		return parseStepBased(content)
	}

	steps := make([]Step, 0, len(payload.Steps))
	for _, raw := range payload.Steps {
		stepType := StepType(strings.ToLower(raw.Type))
		switch stepType {
		case StepObservations, StepAnalysis, StepComparison, StepRecommendations, StepConfidence, StepError:
		default:
			stepType = inferStepType(raw.Description)
		}
		steps = append(steps, Step{
			Type:        stepType,
			Description: raw.Description,
			DataPoints:  raw.DataPoints,
		})
	}
	return steps
}

// inferStepType maps header vocabulary to a step type.
func inferStepType(header string) StepType {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "observ"):
		return StepObservations
	case strings.Contains(lower, "analy"):
		return StepAnalysis
	case strings.Contains(lower, "compar"), strings.Contains(lower, "versus"):
		return StepComparison
	case strings.Contains(lower, "recommend"), strings.Contains(lower, "suggest"):
		return StepRecommendations
	case strings.Contains(lower, "confidence"), strings.Contains(lower, "certain"):
		return StepConfidence
	case strings.Contains(lower, "error"):
		return StepError
	default:
		return StepGeneral
	}
}

// stripBullet returns the text of a "- " bullet line.
func stripBullet(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "- ") {
		return strings.TrimSpace(trimmed[2:]), true
	}
	if strings.HasPrefix(trimmed, "-") && len(trimmed) > 1 {
		return strings.TrimSpace(trimmed[1:]), true
	}
	return "", false
}

// nonEmptyLines splits text into trimmed, non-empty lines.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
