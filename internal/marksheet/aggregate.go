package marksheet

import (
	"fmt"
	"math"
)

// AggregateResult holds the figures derived from the current rows. It is
// recomputed on demand and never stored.
type AggregateResult struct {
	TotalMarks    int     `json:"total_marks"`
	TotalMaxMarks int     `json:"total_max_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         Grade   `json:"grade"`
	Remarks       string  `json:"remarks"`
	Counted       int     `json:"counted_entries"`
}

// PercentageLabel renders the percentage for display, e.g. "70.00%".
func (r AggregateResult) PercentageLabel() string {
	return fmt.Sprintf("%.2f%%", r.Percentage)
}

// Aggregate sums every row whose marks lie within 0 and its maximum.
// Inconsistent rows are skipped rather than failing the whole computation,
// so the result is a best-effort snapshot even while the form is not
// submittable. Unreadable marks count as 0 and an unreadable maximum as
// DefaultMaxMarks.
func Aggregate(entries []SubjectEntry) AggregateResult {
	var result AggregateResult
	for _, e := range entries {
		marks, ok := parseMarks(e.MarksObtained)
		if !ok {
			marks = 0
		}
		maxMarks, ok := parseMarks(e.MaxMarks)
		if !ok {
			maxMarks = DefaultMaxMarks
		}
		if marks < 0 || maxMarks < MinMaxMarks || marks > maxMarks {
			continue
		}
		result.TotalMarks += marks
		result.TotalMaxMarks += maxMarks
		result.Counted++
	}

	raw := Percentage(result.TotalMarks, result.TotalMaxMarks)
	class := Classify(raw)
	result.Percentage = RoundPercentage(raw)
	result.Grade = class.Grade
	result.Remarks = class.Remarks
	return result
}

// Percentage returns marks as a percentage of maxMarks, or 0 when there is
// nothing to divide by.
func Percentage(marks, maxMarks int) float64 {
	if maxMarks <= 0 {
		return 0
	}
	return float64(marks) / float64(maxMarks) * 100
}

// RoundPercentage rounds to two decimal places.
func RoundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}
