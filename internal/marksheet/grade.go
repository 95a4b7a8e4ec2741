package marksheet

import "strings"

// Grade is a letter grade.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Classification is a grade together with its remark.
type Classification struct {
	Grade   Grade  `json:"grade"`
	Remarks string `json:"remarks"`
}

type threshold struct {
	min   float64
	class Classification
}

// gradeScale is ordered high to low; lower bounds are inclusive.
var gradeScale = []threshold{
	{90, Classification{GradeAPlus, "Outstanding Performance"}},
	{80, Classification{GradeA, "Excellent Performance"}},
	{70, Classification{GradeBPlus, "Very Good Performance"}},
	{60, Classification{GradeB, "Good Performance"}},
	{50, Classification{GradeC, "Satisfactory Performance"}},
	{40, Classification{GradeD, "Needs Improvement"}},
}

var failing = Classification{GradeF, "Failed - Requires Re-examination"}

// Classify maps a percentage to its grade. It is defined for every input;
// anything below the lowest threshold, NaN included, is a fail.
func Classify(percentage float64) Classification {
	for _, t := range gradeScale {
		if percentage >= t.min {
			return t.class
		}
	}
	return failing
}

// Grades lists every grade from best to worst.
func Grades() []Grade {
	out := make([]Grade, 0, len(gradeScale)+1)
	for _, t := range gradeScale {
		out = append(out, t.class.Grade)
	}
	return append(out, failing.Grade)
}

func (g Grade) Valid() bool {
	for _, known := range Grades() {
		if g == known {
			return true
		}
	}
	return false
}

func (g Grade) Passed() bool {
	return g.Valid() && g != GradeF
}

// CSSClass returns the style class used when rendering the grade, e.g.
// "grade-aplus" for A+.
func (g Grade) CSSClass() string {
	return "grade-" + strings.ReplaceAll(strings.ToLower(string(g)), "+", "plus")
}
