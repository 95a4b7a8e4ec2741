package models

import "time"

type ImportSummary struct {
	TotalRows      int                     `json:"total_rows"`
	SuccessCount   int                     `json:"success_count"`
	SkippedCount   int                     `json:"skipped_count"`
	ErrorCount     int                     `json:"error_count"`
	SubjectColumns []string                `json:"subject_columns"`
	Errors         []ImportValidationError `json:"errors"`
	ProcessingTime time.Duration           `json:"processing_time"`
}

// MarksheetFilter narrows analytics and export queries. Empty fields and the
// value "all" mean no filter.
type MarksheetFilter struct {
	Branch   string `json:"branch" form:"branch"`
	Semester string `json:"semester" form:"semester"`
	ExamType string `json:"exam_type" form:"exam_type"`
}

// FilterAll is the sentinel value the dashboard sends for "no filter".
const FilterAll = "all"

func isSet(v string) bool {
	return v != "" && v != FilterAll
}

func (f MarksheetFilter) HasBranch() bool   { return isSet(f.Branch) }
func (f MarksheetFilter) HasSemester() bool { return isSet(f.Semester) }
func (f MarksheetFilter) HasExamType() bool { return isSet(f.ExamType) }
