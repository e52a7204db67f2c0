package reasoning

import "strings"

// dimensionKeywords maps query vocabulary to analysis dimensions. A
// dimension is included in the plan when any of its keywords appears in
// the query.
var dimensionKeywords = map[StepType][]string{
	StepObservations: {
		"current", "recent", "lately", "progress", "history", "logbook",
		"so far", "where am i",
	},
	StepAnalysis: {
		"why", "analyze", "analyse", "compare", "versus", "trend",
		"weakness", "plateau", "stuck", "holding me back", "detailed",
	},
	StepRecommendations: {
		"should", "recommend", "suggest", "improve", "train", "plan",
		"next", "how do i", "how can i", "what to",
	},
	StepConfidence: {
		"sure", "certain", "likely", "confident", "how confident",
		"realistic", "chances",
	},
}

// planOrder keeps plan dimensions in a stable, meaningful order.
var planOrder = []StepType{StepObservations, StepAnalysis, StepRecommendations, StepConfidence}

// buildPlan scans the query for dimension keywords. More than one matched
// dimension widens the plan to comprehensive. A query matching nothing
// still gets a focused analysis pass rather than an empty plan.
func buildPlan(query string) Plan {
	lower := strings.ToLower(query)

	var dimensions []StepType
	for _, dim := range planOrder {
		for _, keyword := range dimensionKeywords[dim] {
			if strings.Contains(lower, keyword) {
				dimensions = append(dimensions, dim)
				break
			}
		}
	}

	if len(dimensions) == 0 {
		dimensions = []StepType{StepAnalysis}
	}

	depth := DepthFocused
	if len(dimensions) > 1 {
		depth = DepthComprehensive
	}

	return Plan{Dimensions: dimensions, Depth: depth}
}
