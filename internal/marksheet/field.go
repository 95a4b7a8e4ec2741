package marksheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds are the static limits declared on the marks input. They do not
// depend on the row's own maximum marks.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultBounds matches the declared range of the marks input.
var DefaultBounds = Bounds{Min: 0, Max: 100}

// MinMaxMarks is the declared minimum of the maximum-marks input.
const MinMaxMarks = 1

// Reason explains why a row failed validation.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNotANumber Reason = "not a number"
	ReasonOutOfRange Reason = "out of declared range"
	ReasonExceedsMax Reason = "exceeds maximum marks for this subject"
)

// EntryVerdict is the outcome of validating a row or one of its inputs.
// Field names the input to flag when Valid is false.
type EntryVerdict struct {
	Valid    bool         `json:"valid"`
	Reason   Reason       `json:"reason,omitempty"`
	Field    SubjectField `json:"field,omitempty"`
	Notify   bool         `json:"-"`
	MaxMarks int          `json:"-"`
}

// Notice is the message shown to the user immediately for violations that
// require one.
func (v EntryVerdict) Notice() string {
	if !v.Notify {
		return ""
	}
	return fmt.Sprintf("Marks cannot exceed %d!", v.MaxMarks)
}

func valid() EntryVerdict {
	return EntryVerdict{Valid: true}
}

func invalid(field SubjectField, reason Reason) EntryVerdict {
	return EntryVerdict{Field: field, Reason: reason}
}

func exceeds(maxMarks int) EntryVerdict {
	return EntryVerdict{Field: FieldMarks, Reason: ReasonExceedsMax, Notify: true, MaxMarks: maxMarks}
}

// ValidateEntry checks a whole row. Rules run in order and the first
// failure wins: both numbers must parse, marks must lie within the declared
// bounds and the maximum must reach its declared minimum, and marks must not
// exceed the row's maximum.
func ValidateEntry(entry SubjectEntry, bounds Bounds) EntryVerdict {
	marks, ok := parseMarks(entry.MarksObtained)
	if !ok {
		return invalid(FieldMarks, ReasonNotANumber)
	}
	maxMarks, ok := parseMarks(entry.MaxMarks)
	if !ok {
		return invalid(FieldMaxMarks, ReasonNotANumber)
	}

	if marks < bounds.Min || marks > bounds.Max {
		return invalid(FieldMarks, ReasonOutOfRange)
	}
	if maxMarks < MinMaxMarks {
		return invalid(FieldMaxMarks, ReasonOutOfRange)
	}

	if marks > maxMarks {
		return exceeds(maxMarks)
	}
	return valid()
}

// ValidateField checks a single input while it is being edited. The marks
// input is compared against the row maximum, falling back to
// DefaultMaxMarks while the maximum is unreadable.
func ValidateField(entry SubjectEntry, field SubjectField, bounds Bounds) EntryVerdict {
	switch field {
	case FieldMarks:
		marks, ok := parseMarks(entry.MarksObtained)
		if !ok {
			return invalid(FieldMarks, ReasonNotANumber)
		}
		if marks < bounds.Min || marks > bounds.Max {
			return invalid(FieldMarks, ReasonOutOfRange)
		}
		maxMarks, ok := parseMarks(entry.MaxMarks)
		if !ok {
			maxMarks = DefaultMaxMarks
		}
		if marks > maxMarks {
			return exceeds(maxMarks)
		}
		return valid()

	case FieldMaxMarks:
		maxMarks, ok := parseMarks(entry.MaxMarks)
		if !ok {
			return invalid(FieldMaxMarks, ReasonNotANumber)
		}
		if maxMarks < MinMaxMarks {
			return invalid(FieldMaxMarks, ReasonOutOfRange)
		}
		return valid()

	default:
		// Subject names are only checked on submit.
		return valid()
	}
}

// parseMarks reads the leading integer of s, the way a number input value
// is read: surrounding spaces are ignored, an optional sign is accepted and
// anything after the digits is dropped ("72.5" reads as 72).
func parseMarks(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
