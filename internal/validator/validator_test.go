package validator

import (
	"testing"

	apperrors "github.com/SAP-F-2025/marksheet-service/internal/errors"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type editRequest struct {
	Field string `json:"field" validate:"required,subject_field"`
	Value string `json:"value"`
}

type performerRequest struct {
	Type  string `json:"type" validate:"required,performer_type"`
	Grade string `json:"grade" validate:"omitempty,grade_letter"`
}

type subjectRow struct {
	Name     string `json:"name" validate:"not_blank"`
	Marks    int    `json:"marks" validate:"marks_value"`
	MaxMarks int    `json:"max_marks" validate:"min=1"`
}

func (r subjectRow) ValidateBusiness() ValidationErrors {
	if r.Marks > r.MaxMarks {
		return ValidationErrors{*apperrors.NewValidationError("marks", "cannot exceed max_marks", r.Marks)}
	}
	return nil
}

func TestValidator_CustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateStruct(editRequest{Field: "marks"}))
	assert.Error(t, v.ValidateStruct(editRequest{Field: "grade"}))

	assert.NoError(t, v.ValidateStruct(performerRequest{Type: "branch", Grade: "B+"}))
	assert.Error(t, v.ValidateStruct(performerRequest{Type: "school"}))
	assert.Error(t, v.ValidateStruct(performerRequest{Type: "overall", Grade: "E"}))
}

func TestValidator_ValidateReturnsFieldErrors(t *testing.T) {
	v := New()

	err := v.Validate(subjectRow{Name: "  ", Marks: 101, MaxMarks: 100})

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "not_blank", errs[0].Rule)
	assert.Equal(t, "must not be blank", errs[0].Message)
	assert.Equal(t, "marks", errs[1].Field)
	assert.Equal(t, "marks_value", errs[1].Rule)
}

func TestValidator_MarksValueUsesBounds(t *testing.T) {
	v := NewWithBounds(marksheet.Bounds{Min: 10, Max: 50})

	assert.NoError(t, v.ValidateStruct(subjectRow{Name: "Art", Marks: 50, MaxMarks: 50}))

	err := v.Validate(subjectRow{Name: "Art", Marks: 5, MaxMarks: 50})
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "marks_value", errs[0].Rule)
	assert.Equal(t, "is outside the allowed marks range", errs[0].Message)

	assert.Error(t, v.ValidateStruct(subjectRow{Name: "Art", Marks: 60, MaxMarks: 100}))
	assert.NoError(t, New().ValidateStruct(subjectRow{Name: "Art", Marks: 60, MaxMarks: 100}))
}

func TestValidator_BusinessRules(t *testing.T) {
	v := New()

	err := v.Validate(subjectRow{Name: "Math", Marks: 60, MaxMarks: 50})

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "cannot exceed max_marks", errs[0].Message)

	assert.NoError(t, v.Validate(subjectRow{Name: "Math", Marks: 50, MaxMarks: 50}))
}
