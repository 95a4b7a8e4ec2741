// Package marksheet implements the marks validation and grade computation
// engine behind the marksheet creation form.
package marksheet

import (
	"strconv"
	"strings"
)

// SubjectField names one input of a subject row.
type SubjectField string

const (
	FieldSubjectName SubjectField = "subject_name"
	FieldMarks       SubjectField = "marks"
	FieldMaxMarks    SubjectField = "max_marks"
)

// DefaultMaxMarks is used for new rows, imported rows without a maximum and
// as the aggregation fallback for an unparseable maximum.
const DefaultMaxMarks = 100

// SubjectEntry is one subject row exactly as typed. Numeric interpretation
// is left to the validators and the aggregator.
type SubjectEntry struct {
	Name          string `json:"name"`
	MarksObtained string `json:"marks_obtained"`
	MaxMarks      string `json:"max_marks"`
}

// NewSubjectEntry returns a blank row with the default maximum marks.
func NewSubjectEntry() SubjectEntry {
	return SubjectEntry{MaxMarks: strconv.Itoa(DefaultMaxMarks)}
}

// InUse reports whether the row has a subject name and therefore takes part
// in form validation.
func (e SubjectEntry) InUse() bool {
	return strings.TrimSpace(e.Name) != ""
}

// Numbers parses the marks and maximum marks of the row. ok is false when
// either does not read as an integer.
func (e SubjectEntry) Numbers() (marks, maxMarks int, ok bool) {
	marks, marksOK := parseMarks(e.MarksObtained)
	maxMarks, maxOK := parseMarks(e.MaxMarks)
	return marks, maxMarks, marksOK && maxOK
}

// Value returns the raw text of the given field.
func (e SubjectEntry) Value(field SubjectField) (string, error) {
	switch field {
	case FieldSubjectName:
		return e.Name, nil
	case FieldMarks:
		return e.MarksObtained, nil
	case FieldMaxMarks:
		return e.MaxMarks, nil
	default:
		return "", ErrUnknownField
	}
}

func (e *SubjectEntry) set(field SubjectField, value string) error {
	switch field {
	case FieldSubjectName:
		e.Name = value
	case FieldMarks:
		e.MarksObtained = value
	case FieldMaxMarks:
		e.MaxMarks = value
	default:
		return ErrUnknownField
	}
	return nil
}

// ImportRecord is one externally parsed subject. MaxMarks is optional and
// defaults to DefaultMaxMarks.
type ImportRecord struct {
	Name          string `json:"name" validate:"not_blank"`
	MarksObtained int    `json:"marks"`
	MaxMarks      *int   `json:"max_marks,omitempty" validate:"omitempty,min=1"`
}

// Entry converts the record into a subject row.
func (r ImportRecord) Entry() SubjectEntry {
	return SubjectEntry{
		Name:          r.Name,
		MarksObtained: strconv.Itoa(r.MarksObtained),
		MaxMarks:      strconv.Itoa(r.EffectiveMaxMarks()),
	}
}

// EffectiveMaxMarks returns the maximum marks the record will be imported with.
func (r ImportRecord) EffectiveMaxMarks() int {
	if r.MaxMarks == nil {
		return DefaultMaxMarks
	}
	return *r.MaxMarks
}
