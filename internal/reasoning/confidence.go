package reasoning

import (
	"strings"
	"unicode"
)

// Marker words shifting a step's base confidence. Certainty markers raise
// it, hedging words lower it.
var (
	certaintyMarkers   = []string{"clearly", "definitely", "shows", "demonstrates"}
	uncertaintyMarkers = []string{"might", "could", "possibly", "perhaps"}
)

// scoreStep computes a step's confidence. The base score rewards
// evidence density (data points, numbers) and certainty vocabulary, then
// gets blended with how well the step's wording aligns with the
// deliberation trace:
//
//	final = 0.7·base + 0.3·alignment   (when a trace exists)
func scoreStep(step Step, trace string) float64 {
	base := 0.5

	if len(step.DataPoints) >= 3 {
		base += 0.2
	}
	if anyContainsDigit(step.DataPoints) {
		base += 0.2
	}

	text := strings.ToLower(step.Description + " " + strings.Join(step.DataPoints, " "))
	for _, marker := range certaintyMarkers {
		if strings.Contains(text, marker) {
			base += 0.1
		}
	}
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(text, marker) {
			base -= 0.1
		}
	}
	base = clamp01(base)

	if strings.TrimSpace(trace) == "" {
		return base
	}
	return clamp01(0.7*base + 0.3*alignmentScore(text, trace))
}

// alignmentScore measures the word-overlap ratio between a step's
// vocabulary and the trace's vocabulary. A step the model never thought
// about scores low.
func alignmentScore(stepText, trace string) float64 {
	stepWords := wordSet(stepText)
	if len(stepWords) == 0 {
		return 0
	}
	traceWords := wordSet(trace)

	overlap := 0
	for word := range stepWords {
		if _, ok := traceWords[word]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(stepWords))
}

// wordSet tokenizes text into a set of lowercase words, dropping short
// tokens that carry no signal.
func wordSet(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) > 2 {
			words[field] = struct{}{}
		}
	}
	return words
}

func anyContainsDigit(items []string) bool {
	for _, item := range items {
		for _, r := range item {
			if unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
