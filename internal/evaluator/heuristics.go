package evaluator

import (
	"regexp"
	"strings"
)

// Category groups the patterns that signal one kind of reasoning demand.
// Categories are immutable once the evaluator is built; reconfiguration
// creates a new evaluator rather than mutating shared state.
type Category struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Heuristics is the complete pattern set the heuristic pass scans against.
type Heuristics struct {
	Categories []Category
}

// DefaultHeuristics returns the built-in category patterns. Messages that
// ask for plans, cross-session analysis, technical breakdowns or metric
// comparisons are the ones worth the expensive reasoning call.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Categories: []Category{
			{
				Name: "planning",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(training\s+plan|plan\b|schedule|program|periodi[sz]ation|roadmap)`),
					regexp.MustCompile(`\b(step[\s-]by[\s-]step|structure\s+my|(prepare|preparation)\s+for|next\s+(month|season|cycle))\b`),
				},
			},
			{
				Name: "analysis",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(anal[yz]|assess|evaluate|review\s+my)`),
					regexp.MustCompile(`\b(why\s+(am|is|are|do|did)|what.s\s+holding)`),
					regexp.MustCompile(`\b(compare|versus|vs\.?|difference\s+between)\b`),
					regexp.MustCompile(`\b(detailed|in[\s-]depth|thorough|comprehensive)\b`),
					regexp.MustCompile(`\b(weakness|strength|plateau|stuck)\b`),
				},
			},
			{
				Name: "technical",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(technique|beta|footwork|body\s+position)`),
					regexp.MustCompile(`\b(crimp|sloper|pinch|gaston|drop[\s-]knee|heel\s+hook)`),
					regexp.MustCompile(`\b(endurance|power|finger\s+strength|hangboard|training)\b`),
					regexp.MustCompile(`\b(injur|tweak|pulley|tendon)`),
				},
			},
			{
				Name: "metrics",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(grade|pyramid|progression|[0-9]+[abc]\+?|5\.[0-9]+[abcd]?)\b`),
					regexp.MustCompile(`\b(how\s+many|how\s+long|percent|rate|count)\b`),
					regexp.MustCompile(`\b(onsight|flash|redpoint|send)\s+(level|rate|grade)`),
					regexp.MustCompile(`\b(statistics|stats|numbers|data)\b`),
				},
			},
		},
	}
}

// scan runs the heuristic pass: per-category coverage scores, breadth
// across categories, depth within matched categories.
//
//	score(cat)  = matched patterns / total patterns
//	breadth     = matched categories / total categories
//	depth       = mean score over matched categories
//	confidence  = (breadth + depth) / 2
func (h Heuristics) scan(message string) (confidence float64, triggers []string) {
	lower := strings.ToLower(message)

	var matchedCategories int
	var depthSum float64

	for _, cat := range h.Categories {
		matched := 0
		for _, p := range cat.Patterns {
			if p.MatchString(lower) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		matchedCategories++
		depthSum += float64(matched) / float64(len(cat.Patterns))
		triggers = append(triggers, cat.Name)
	}

	if matchedCategories == 0 || len(h.Categories) == 0 {
		return 0, nil
	}

	breadth := float64(matchedCategories) / float64(len(h.Categories))
	depth := depthSum / float64(matchedCategories)
	return (breadth + depth) / 2, triggers
}
