package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportJobStatus string

const (
	ImportPending          ImportJobStatus = "pending"
	ImportProcessing       ImportJobStatus = "processing"
	ImportCompleted        ImportJobStatus = "completed"
	ImportFailed           ImportJobStatus = "failed"
	ImportValidationFailed ImportJobStatus = "validation_failed"
)

type ImportJob struct {
	ID string `json:"id" gorm:"primaryKey;size:36"` // UUID

	// File info
	FileName string `json:"file_name" gorm:"not null;size:255"`
	FileType string `json:"file_type" gorm:"not null;size:20"` // xlsx, xls, csv
	FileSize int64  `json:"file_size" gorm:"not null"`

	// Job status
	Status ImportJobStatus `json:"status" gorm:"default:pending;index"`

	// Processing info
	TotalRows    int `json:"total_rows"`
	SuccessCount int `json:"success_count"`
	SkippedCount int `json:"skipped_count"`
	ErrorCount   int `json:"error_count"`

	// Results
	Errors  datatypes.JSON `json:"errors" gorm:"type:jsonb"` // []ImportValidationError
	Summary datatypes.JSON `json:"summary" gorm:"type:jsonb"`

	// Timestamps
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// ImportedSubject is one subject cell of an imported row.
type ImportedSubject struct {
	Name     string `json:"name"`
	Marks    int    `json:"marks"`
	MaxMarks int    `json:"max_marks"`
}

// ImportedStudent is one spreadsheet row after parsing, ready to fill a form
// session or to be stored through bulk creation.
type ImportedStudent struct {
	Row      int               `json:"row"`
	Name     string            `json:"student_name"`
	RollNo   string            `json:"roll_no"`
	Branch   string            `json:"branch"`
	Semester string            `json:"semester"`
	ExamType string            `json:"exam_type"`
	Subjects []ImportedSubject `json:"subjects"`
}
