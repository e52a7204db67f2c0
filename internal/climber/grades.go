package climber

import (
	"fmt"
	"strings"
)

// gradeScale orders sport grades on a single numeric axis so grades from
// the French and YDS systems can be compared. Indexes are comparison
// values only, not a linear difficulty measure.
var gradeScale = []struct {
	french string
	yds    string
}{
	{"4", "5.5"},
	{"5a", "5.7"},
	{"5b", "5.8"},
	{"5c", "5.9"},
	{"6a", "5.10a"},
	{"6a+", "5.10b"},
	{"6b", "5.10c"},
	{"6b+", "5.10d"},
	{"6c", "5.11a"},
	{"6c+", "5.11b"},
	{"7a", "5.11d"},
	{"7a+", "5.12a"},
	{"7b", "5.12b"},
	{"7b+", "5.12c"},
	{"7c", "5.12d"},
	{"7c+", "5.13a"},
	{"8a", "5.13b"},
	{"8a+", "5.13c"},
	{"8b", "5.13d"},
	{"8b+", "5.14a"},
	{"8c", "5.14b"},
	{"9a", "5.14d"},
}

// GradeIndex returns the position of a grade on the shared scale, or -1
// when the grade is not recognized. Both French and YDS notations work.
func GradeIndex(grade string) int {
	g := strings.ToLower(strings.TrimSpace(grade))
	for i, entry := range gradeScale {
		if entry.french == g || entry.yds == g {
			return i
		}
	}
	return -1
}

// ToYDS converts a French grade to YDS. Unknown grades pass through.
func ToYDS(french string) string {
	if i := GradeIndex(french); i >= 0 {
		return gradeScale[i].yds
	}
	return french
}

// ToFrench converts a YDS grade to French. Unknown grades pass through.
func ToFrench(yds string) string {
	if i := GradeIndex(yds); i >= 0 {
		return gradeScale[i].french
	}
	return yds
}

// CompareGrades returns a negative value when a is easier than b, zero
// when equivalent, positive when harder. Unknown grades compare as equal.
func CompareGrades(a, b string) int {
	ia, ib := GradeIndex(a), GradeIndex(b)
	if ia < 0 || ib < 0 {
		return 0
	}
	return ia - ib
}

// DescribeGap renders the distance between two grades for prompt
// enrichment, e.g. "7a is 3 letter grades above 6b+".
func DescribeGap(from, to string) string {
	ia, ib := GradeIndex(from), GradeIndex(to)
	if ia < 0 || ib < 0 || ia == ib {
		return ""
	}
	diff := ib - ia
	direction := "above"
	if diff < 0 {
		direction = "below"
		diff = -diff
	}
	unit := "letter grades"
	if diff == 1 {
		unit = "letter grade"
	}
	return fmt.Sprintf("%s is %d %s %s %s", to, diff, unit, direction, from)
}
