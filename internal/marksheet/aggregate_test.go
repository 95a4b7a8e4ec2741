package marksheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_SkipsInconsistentRows(t *testing.T) {
	entries := []SubjectEntry{
		{Name: "Math", MarksObtained: "80", MaxMarks: "100"},
		{Name: "Physics", MarksObtained: "120", MaxMarks: "100"},
		{Name: "Chemistry", MarksObtained: "-5", MaxMarks: "100"},
		{Name: "Biology", MarksObtained: "30", MaxMarks: "50"},
	}

	result := Aggregate(entries)

	assert.Equal(t, 110, result.TotalMarks)
	assert.Equal(t, 150, result.TotalMaxMarks)
	assert.Equal(t, 2, result.Counted)
	assert.Equal(t, 73.33, result.Percentage)
	assert.Equal(t, GradeBPlus, result.Grade)
	assert.Equal(t, "73.33%", result.PercentageLabel())
}

func TestAggregate_Idempotent(t *testing.T) {
	entries := []SubjectEntry{
		{Name: "Math", MarksObtained: "45", MaxMarks: "50"},
		{Name: "English", MarksObtained: "abc", MaxMarks: "100"},
	}

	first := Aggregate(entries)
	second := Aggregate(entries)
	assert.Equal(t, first, second)
}

func TestAggregate_ParseFallbacks(t *testing.T) {
	// Unreadable marks count as 0 and an unreadable maximum as 100.
	result := Aggregate([]SubjectEntry{
		{Name: "Math", MarksObtained: "", MaxMarks: "100"},
		{Name: "Art", MarksObtained: "50", MaxMarks: "x"},
	})

	assert.Equal(t, 50, result.TotalMarks)
	assert.Equal(t, 200, result.TotalMaxMarks)
	assert.Equal(t, 25.0, result.Percentage)
}

func TestAggregate_ZeroMaxMarksRowExcluded(t *testing.T) {
	result := Aggregate([]SubjectEntry{{Name: "Math", MarksObtained: "0", MaxMarks: "0"}})

	assert.Equal(t, 0, result.TotalMaxMarks)
	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, GradeF, result.Grade)
}

func TestAggregate_GradeUsesUnroundedPercentage(t *testing.T) {
	// 89.9955 rounds to 90.00 for display but is still an A.
	result := Aggregate([]SubjectEntry{{Name: "Math", MarksObtained: "179991", MaxMarks: "200000"}})

	assert.Equal(t, 90.0, result.Percentage)
	assert.Equal(t, GradeA, result.Grade)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(10, 0))
	assert.Equal(t, 50.0, Percentage(25, 50))
	assert.Equal(t, 66.67, RoundPercentage(Percentage(2, 3)))
}
