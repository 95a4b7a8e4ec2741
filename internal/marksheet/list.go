package marksheet

import "errors"

var (
	ErrLastSubject     = errors.New("at least one subject is required")
	ErrIndexOutOfRange = errors.New("subject index out of range")
	ErrUnknownField    = errors.New("unknown subject field")
)

// SubjectList is the ordered set of subject rows of one form. It never holds
// fewer than one row.
type SubjectList struct {
	entries []SubjectEntry
}

// NewSubjectList returns a list holding a single blank row.
func NewSubjectList() *SubjectList {
	return &SubjectList{entries: []SubjectEntry{NewSubjectEntry()}}
}

func (l *SubjectList) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the rows in display order.
func (l *SubjectList) Entries() []SubjectEntry {
	out := make([]SubjectEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *SubjectList) At(index int) (SubjectEntry, error) {
	if index < 0 || index >= len(l.entries) {
		return SubjectEntry{}, ErrIndexOutOfRange
	}
	return l.entries[index], nil
}

// Add appends a blank row and returns its index.
func (l *SubjectList) Add() int {
	l.entries = append(l.entries, NewSubjectEntry())
	return len(l.entries) - 1
}

// Remove deletes the row at index. Removing the only remaining row is
// rejected with ErrLastSubject and leaves the list unchanged.
func (l *SubjectList) Remove(index int) error {
	if index < 0 || index >= len(l.entries) {
		return ErrIndexOutOfRange
	}
	if len(l.entries) <= 1 {
		return ErrLastSubject
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// Update sets one field of the row at index.
func (l *SubjectList) Update(index int, field SubjectField, value string) error {
	if index < 0 || index >= len(l.entries) {
		return ErrIndexOutOfRange
	}
	return l.entries[index].set(field, value)
}

// Replace swaps the whole list for one row per record, in record order.
// The new slice is built first and assigned in one step, so no reader ever
// sees a partially populated list. An empty import falls back to the
// single default row.
func (l *SubjectList) Replace(records []ImportRecord) {
	if len(records) == 0 {
		l.Reset()
		return
	}
	entries := make([]SubjectEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Entry())
	}
	l.entries = entries
}

// Reset collapses the list back to the single default row.
func (l *SubjectList) Reset() {
	l.entries = []SubjectEntry{NewSubjectEntry()}
}
