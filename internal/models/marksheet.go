package models

import (
	"time"
)

type Marksheet struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null;size:100;index" validate:"required,not_blank,max=100"`
	RollNo   string `json:"roll_no" gorm:"not null;size:50;uniqueIndex" validate:"required,not_blank,max=50"`
	Branch   string `json:"branch" gorm:"not null;size:100;index" validate:"required,not_blank,max=100"`
	Semester string `json:"semester" gorm:"not null;size:20;index" validate:"required,not_blank,max=20"`
	ExamType string `json:"exam_type" gorm:"not null;size:50;index" validate:"required,not_blank,max=50"`

	// Aggregate figures, computed on submission
	TotalMarks int     `json:"total_marks" gorm:"not null"`
	MaxMarks   int     `json:"max_marks" gorm:"not null"`
	Percentage float64 `json:"percentage" gorm:"type:decimal(5,2);not null;index"`
	Grade      string  `json:"grade" gorm:"size:5;not null;index" validate:"omitempty,grade_letter"`
	Remarks    string  `json:"remarks" gorm:"size:100"`

	// Signatures
	ClassTeacher     *string `json:"class_teacher" gorm:"size:100"`
	Principal        *string `json:"principal" gorm:"size:100"`
	IncludeSignature bool    `json:"include_signature" gorm:"default:false"`
	IncludeSeal      bool    `json:"include_seal" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	Subjects []Subject `json:"subjects" gorm:"foreignKey:MarksheetID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	SubjectCount int `json:"subject_count" gorm:"-"`
}

type Subject struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	MarksheetID uint   `json:"marksheet_id" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null;size:100" validate:"required,not_blank,max=100"`
	Marks       int    `json:"marks" gorm:"not null" validate:"min=0"`
	MaxMarks    int    `json:"max_marks" gorm:"not null;default:100" validate:"min=1"`
	Grade       string `json:"grade" gorm:"size:5"`
}

// SubjectPercentage is the share of MaxMarks obtained, 0 when MaxMarks is not positive.
func (s Subject) SubjectPercentage() float64 {
	if s.MaxMarks <= 0 {
		return 0
	}
	return float64(s.Marks) / float64(s.MaxMarks) * 100
}
