package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/marksheet-service/internal/errors"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Marksheet specific errors
	ErrMarksheetNotFound = errors.New("marksheet not found")
	ErrDuplicateRollNo   = errors.New("a marksheet with this roll number already exists")
	ErrNoSubjects        = errors.New("at least one subject is required")

	// Session specific errors
	ErrSessionNotFound = errors.New("form session not found")

	// Import/export errors
	ErrUnsupportedFile    = errors.New("unsupported file type, expected .xlsx, .xls or .csv")
	ErrFileTooLarge       = errors.New("uploaded file is too large")
	ErrNoValidStudentData = errors.New("No valid student data found in Excel file")
	ErrImportJobNotFound  = errors.New("import job not found")
	ErrNoDataToExport     = errors.New("no marksheet data to export")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// NewSubjectValidationError creates a validation error for one subject row
func NewSubjectValidationError(index int, field, message string, value interface{}) *ValidationError {
	return apperrors.NewSubjectValidationError(index, field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMarksheetNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrImportJobNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrNoSubjects) ||
		errors.Is(err, ErrUnsupportedFile) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrNoValidStudentData) ||
		errors.Is(err, marksheet.ErrLastSubject) ||
		errors.Is(err, marksheet.ErrUnknownField) ||
		errors.Is(err, marksheet.ErrIndexOutOfRange) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	if errors.As(err, &single) {
		return true
	}
	var fe *marksheet.FormError
	return errors.As(err, &fe)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicateRollNo) ||
		errors.Is(err, marksheet.ErrSubmitInProgress)
}
