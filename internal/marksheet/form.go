package marksheet

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/marksheet-service/internal/errors"
)

// MetaField names a student information input.
type MetaField string

const (
	FieldStudentName MetaField = "student_name"
	FieldRollNo      MetaField = "roll_no"
	FieldBranch      MetaField = "branch"
	FieldSemester    MetaField = "semester"
	FieldExamType    MetaField = "exam_type"
)

// RequiredMetaFields are checked in this order on submit.
var RequiredMetaFields = []MetaField{
	FieldStudentName,
	FieldRollNo,
	FieldBranch,
	FieldSemester,
	FieldExamType,
}

// Label is the human name used in error messages ("student name").
func (f MetaField) Label() string {
	return strings.Replace(string(f), "_", " ", 1)
}

// StudentMeta is the top-level student information of a marksheet.
type StudentMeta struct {
	StudentName      string `json:"student_name"`
	RollNo           string `json:"roll_no"`
	Branch           string `json:"branch"`
	Semester         string `json:"semester"`
	ExamType         string `json:"exam_type"`
	ClassTeacher     string `json:"class_teacher,omitempty"`
	Principal        string `json:"principal,omitempty"`
	IncludeSignature bool   `json:"include_signature"`
	IncludeSeal      bool   `json:"include_seal"`
}

func (m StudentMeta) Value(field MetaField) string {
	switch field {
	case FieldStudentName:
		return m.StudentName
	case FieldRollNo:
		return m.RollNo
	case FieldBranch:
		return m.Branch
	case FieldSemester:
		return m.Semester
	case FieldExamType:
		return m.ExamType
	}
	return ""
}

// FieldRef identifies an input on the form. Index is -1 for student
// information fields.
type FieldRef struct {
	Field string `json:"field"`
	Index int    `json:"index"`
}

func MetaRef(field MetaField) FieldRef {
	return FieldRef{Field: string(field), Index: -1}
}

func SubjectRef(index int, field SubjectField) FieldRef {
	return FieldRef{Field: string(field), Index: index}
}

func (r FieldRef) IsMeta() bool {
	return r.Index < 0
}

// NoSubjectsMessage is reported when no row has a subject name.
const NoSubjectsMessage = "At least one subject is required"

// FormVerdict is the result of a full form validation pass. Errors keeps
// the messages in the order they were found; Issues carries the same
// entries with the field they belong to. Flagged inputs are listed in form
// order, so the first one is the focus target.
type FormVerdict struct {
	OK      bool                       `json:"ok"`
	Errors  []string                   `json:"errors"`
	Issues  apperrors.ValidationErrors `json:"issues,omitempty"`
	Flagged []FieldRef                 `json:"flagged,omitempty"`
	Cleared []FieldRef                 `json:"-"`
}

// Focus returns the first flagged input.
func (v FormVerdict) Focus() (FieldRef, bool) {
	if len(v.Flagged) == 0 {
		return FieldRef{}, false
	}
	return v.Flagged[0], true
}

// Message joins all errors into the single notice shown on a blocked submit.
func (v FormVerdict) Message() string {
	return strings.Join(v.Errors, ", ")
}

func (v *FormVerdict) fail(ref *FieldRef, message string, value interface{}) {
	v.Errors = append(v.Errors, message)
	switch {
	case ref == nil:
		v.Issues = append(v.Issues, *apperrors.NewValidationError("subjects", message, nil))
	case ref.IsMeta():
		v.Issues = append(v.Issues, *apperrors.NewValidationError(ref.Field, message, value))
		v.Flagged = append(v.Flagged, *ref)
	default:
		v.Issues = append(v.Issues, *apperrors.NewSubjectValidationError(ref.Index, ref.Field, message, value))
		v.Flagged = append(v.Flagged, *ref)
	}
}

// ValidateForm checks the student information and every named subject row
// and decides whether the form may be submitted. Every call starts from an
// empty error list.
func ValidateForm(meta StudentMeta, entries []SubjectEntry) FormVerdict {
	return ValidateFormWithBounds(meta, entries, DefaultBounds)
}

// ValidateFormWithBounds is ValidateForm with explicit declared bounds for
// the marks inputs.
func ValidateFormWithBounds(meta StudentMeta, entries []SubjectEntry, bounds Bounds) FormVerdict {
	verdict := FormVerdict{Errors: []string{}}

	for _, field := range RequiredMetaFields {
		ref := MetaRef(field)
		if strings.TrimSpace(meta.Value(field)) == "" {
			verdict.fail(&ref, fmt.Sprintf("%s is required", field.Label()), meta.Value(field))
			continue
		}
		verdict.Cleared = append(verdict.Cleared, ref)
	}

	hasSubject := false
	for i, e := range entries {
		if !e.InUse() {
			continue
		}
		hasSubject = true
		name := strings.TrimSpace(e.Name)
		marksRef := SubjectRef(i, FieldMarks)
		maxRef := SubjectRef(i, FieldMaxMarks)

		marks, marksOK := parseMarks(e.MarksObtained)
		maxMarks, maxOK := parseMarks(e.MaxMarks)

		switch {
		case !marksOK || marks < bounds.Min:
			verdict.fail(&marksRef, fmt.Sprintf("Invalid marks for %s", name), e.MarksObtained)
		case !maxOK || maxMarks < MinMaxMarks:
			verdict.fail(&maxRef, fmt.Sprintf("Invalid maximum marks for %s", name), e.MaxMarks)
		case marks > maxMarks:
			verdict.fail(&marksRef, fmt.Sprintf("Marks cannot exceed maximum marks for %s", name), marks)
		case marks > bounds.Max:
			verdict.fail(&marksRef, fmt.Sprintf("Marks for %s must be between %d and %d", name, bounds.Min, bounds.Max), marks)
		default:
			verdict.Cleared = append(verdict.Cleared, marksRef, maxRef)
		}
	}

	if !hasSubject {
		verdict.fail(nil, NoSubjectsMessage, nil)
	}

	verdict.OK = len(verdict.Errors) == 0
	return verdict
}
