package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/go-playground/validator/v10"
)

// BusinessRules is implemented by request types that carry rules struct
// tags cannot express, such as cross-field checks.
type BusinessRules interface {
	ValidateBusiness() ValidationErrors
}

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance using the default
// declared marks bounds.
func New() *Validator {
	return NewWithBounds(marksheet.DefaultBounds)
}

// NewWithBounds is New with the declared marks bounds checked by the
// marks_value tag.
func NewWithBounds(bounds marksheet.Bounds) *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator, bounds)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// ValidateBusiness validates business rules only
func (v *Validator) ValidateBusiness(s interface{}) ValidationErrors {
	if rules, ok := s.(BusinessRules); ok {
		return rules.ValidateBusiness()
	}
	return nil
}

// Validate performs complete validation (struct + business rules). Struct
// tag failures are returned as ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if errors := v.ValidateBusiness(s); len(errors) > 0 {
		return errors
	}

	return nil
}

// Engine exposes the underlying go-playground validator, e.g. to install it
// as gin's binding validator.
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate, bounds marksheet.Bounds) {
	validate.RegisterValidation("not_blank", validateNotBlank)
	validate.RegisterValidation("subject_field", validateSubjectField)
	validate.RegisterValidation("performer_type", validatePerformerType)
	validate.RegisterValidation("grade_letter", validateGradeLetter)
	validate.RegisterValidation("marks_value", marksValueValidator(bounds))

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateSubjectField(fl validator.FieldLevel) bool {
	switch marksheet.SubjectField(fl.Field().String()) {
	case marksheet.FieldSubjectName, marksheet.FieldMarks, marksheet.FieldMaxMarks:
		return true
	}
	return false
}

// Performer groupings accepted by the analytics endpoints.
const (
	PerformerOverall = "overall"
	PerformerBranch  = "branch"
	PerformerSubject = "subject"
)

func validatePerformerType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case PerformerOverall, PerformerBranch, PerformerSubject:
		return true
	}
	return false
}

func validateGradeLetter(fl validator.FieldLevel) bool {
	return marksheet.Grade(fl.Field().String()).Valid()
}

// marksValueValidator checks an integer against the declared marks bounds.
func marksValueValidator(bounds marksheet.Bounds) validator.Func {
	return func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n := fl.Field().Int()
			return n >= int64(bounds.Min) && n <= int64(bounds.Max)
		}
		return false
	}
}
