package enhancer

import "strings"

// technicalTerms are the statistics/analysis vocabulary an enhanced
// response should shed.
var technicalTerms = []string{
	"confidence interval", "data point", "coefficient", "correlation",
	"standard deviation", "variance", "percentile", "regression",
	"metric", "threshold", "distribution", "weighted",
}

// climbingJargon are the domain words an enhanced response should keep.
var climbingJargon = []string{
	"beta", "redpoint", "onsight", "flash", "send", "crux", "crimp",
	"sloper", "dyno", "pyramid", "project", "hangboard",
}

// sectionMarkers are the header prefixes the structure check looks for.
var sectionMarkers = []string{
	"Key Observations:", "Analysis:", "Actionable Recommendations:",
	"Confidence:", "Summary:",
}

// readabilityScore measures how much the rewrite improved accessibility:
// it rewards shedding technical terms and retaining climbing jargon.
//
//	score = 0.7·tech_reduction + 0.3·jargon_retention
func readabilityScore(original, enhanced string) float64 {
	origTech := countTerms(original, technicalTerms)
	enhTech := countTerms(enhanced, technicalTerms)
	origJargon := countTerms(original, climbingJargon)
	enhJargon := countTerms(enhanced, climbingJargon)

	techReduction := 1 - float64(enhTech)/float64(max(origTech, 1))
	jargonRetention := float64(enhJargon) / float64(max(origJargon, 1))
	if jargonRetention > 1 {
		jargonRetention = 1
	}
	if techReduction < 0 {
		techReduction = 0
	}

	return 0.7*techReduction + 0.3*jargonRetention
}

// structurePreserved reports whether every section header present in the
// original also appears in the enhanced text.
func structurePreserved(original, enhanced string) bool {
	origSections := extractSections(original)
	enhSections := extractSections(enhanced)

	for section := range origSections {
		if _, ok := enhSections[section]; !ok {
			return false
		}
	}
	return true
}

// extractSections collects lines starting with a known section marker.
func extractSections(text string) map[string]struct{} {
	sections := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, marker := range sectionMarkers {
			if strings.HasPrefix(trimmed, marker) {
				sections[marker] = struct{}{}
			}
		}
	}
	return sections
}

// countTerms counts case-insensitive occurrences of each term in text.
func countTerms(text string, terms []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range terms {
		count += strings.Count(lower, term)
	}
	return count
}
