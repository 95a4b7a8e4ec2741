package marksheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/SAP-F-2025/marksheet-service/internal/errors"
)

// NoticeLevel is the semantic kind of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notifier receives the notices a session emits. Rendering and lifetime of
// a notice are up to the implementation.
type Notifier interface {
	Notify(ctx context.Context, level NoticeLevel, message string)
}

// Draft is what a session hands to the transport once the form is valid.
// Subjects holds only the named rows.
type Draft struct {
	Meta      StudentMeta     `json:"meta"`
	Subjects  []SubjectEntry  `json:"subjects"`
	Aggregate AggregateResult `json:"aggregate"`
}

// Receipt identifies the record the transport created.
type Receipt struct {
	ID uint `json:"id"`
}

// Transport performs the actual submission of a valid form.
type Transport interface {
	Submit(ctx context.Context, draft Draft) (Receipt, error)
}

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrNoTransport      = errors.New("no submission transport configured")
)

// FormError is returned by Submit when the form does not validate.
type FormError struct {
	Verdict FormVerdict
}

func (e *FormError) Error() string {
	return "form validation failed: " + e.Verdict.Message()
}

// EntryState is the observable validation state of one row.
type EntryState string

const (
	StateUntouched EntryState = "untouched"
	StateValid     EntryState = "valid"
	StateInvalid   EntryState = "invalid"
)

type rowState struct {
	state EntryState
	flags map[SubjectField]bool
}

func newRowState() rowState {
	return rowState{state: StateUntouched, flags: map[SubjectField]bool{}}
}

func (r *rowState) settle() {
	if len(r.flags) > 0 {
		r.state = StateInvalid
		return
	}
	r.state = StateValid
}

// SubjectView is a row as presented to the display layer.
type SubjectView struct {
	Index int `json:"index"`
	SubjectEntry
	State EntryState     `json:"state"`
	Flags []SubjectField `json:"flags,omitempty"`
}

// Snapshot is everything the display layer needs after an event: the rows
// with their flags, the aggregate, the errors of the latest validation pass
// and the input to focus.
type Snapshot struct {
	Meta            StudentMeta                `json:"meta"`
	MetaFlags       []MetaField                `json:"meta_flags,omitempty"`
	Subjects        []SubjectView              `json:"subjects"`
	Aggregate       AggregateResult            `json:"aggregate"`
	PercentageLabel string                     `json:"percentage_label"`
	GradeClass      string                     `json:"grade_class"`
	Errors          apperrors.ValidationErrors `json:"errors"`
	Focus           *FieldRef                  `json:"focus,omitempty"`
	Processing      bool                       `json:"processing"`
}

// SubmitOutcome reports what happened on submit. Receipt is set only when
// the transport accepted the draft.
type SubmitOutcome struct {
	Verdict  FormVerdict `json:"verdict"`
	Receipt  *Receipt    `json:"receipt,omitempty"`
	Snapshot Snapshot    `json:"snapshot"`
}

type Options struct {
	Bounds         *Bounds
	Notifier       Notifier
	Transport      Transport
	SubmitFallback time.Duration
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, NoticeLevel, string) {}

// Session is one marksheet form being filled in. It owns the subject list,
// the student information and the error flags, and turns validation results
// into flags, notices and focus changes.
//
// A Session is not safe for concurrent use; callers serialize the events of
// one form.
type Session struct {
	meta      StudentMeta
	metaFlags map[MetaField]bool
	list      *SubjectList
	rows      []rowState
	bounds    Bounds

	notifier  Notifier
	transport Transport
	guard     *SubmitGuard

	errors apperrors.ValidationErrors
	focus  *FieldRef
}

func NewSession(opts Options) *Session {
	bounds := DefaultBounds
	if opts.Bounds != nil {
		bounds = *opts.Bounds
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &Session{
		metaFlags: map[MetaField]bool{},
		list:      NewSubjectList(),
		rows:      []rowState{newRowState()},
		bounds:    bounds,
		notifier:  notifier,
		transport: opts.Transport,
		guard:     NewSubmitGuard(opts.SubmitFallback),
	}
}

func (s *Session) Meta() StudentMeta {
	return s.meta
}

func (s *Session) Entries() []SubjectEntry {
	return s.list.Entries()
}

func (s *Session) Guard() *SubmitGuard {
	return s.guard
}

// Aggregate recomputes the figures over the current rows.
func (s *Session) Aggregate() AggregateResult {
	return Aggregate(s.list.Entries())
}

// Snapshot renders the current state.
func (s *Session) Snapshot() Snapshot {
	entries := s.list.Entries()
	views := make([]SubjectView, len(entries))
	for i, e := range entries {
		views[i] = SubjectView{Index: i, SubjectEntry: e, State: s.rows[i].state}
		for _, f := range []SubjectField{FieldSubjectName, FieldMarks, FieldMaxMarks} {
			if s.rows[i].flags[f] {
				views[i].Flags = append(views[i].Flags, f)
			}
		}
	}

	var metaFlags []MetaField
	for _, f := range RequiredMetaFields {
		if s.metaFlags[f] {
			metaFlags = append(metaFlags, f)
		}
	}

	agg := Aggregate(entries)
	errs := s.errors
	if errs == nil {
		errs = apperrors.ValidationErrors{}
	}
	return Snapshot{
		Meta:            s.meta,
		MetaFlags:       metaFlags,
		Subjects:        views,
		Aggregate:       agg,
		PercentageLabel: agg.PercentageLabel(),
		GradeClass:      agg.Grade.CSSClass(),
		Errors:          errs,
		Focus:           s.focus,
		Processing:      s.guard.Processing(),
	}
}

// beginPass drops the results of the previous event; errors never carry
// over from one pass to the next.
func (s *Session) beginPass() {
	s.errors = nil
	s.focus = nil
}

func (s *Session) notify(ctx context.Context, level NoticeLevel, message string) {
	s.notifier.Notify(ctx, level, message)
}

// SetMeta replaces the student information.
func (s *Session) SetMeta(meta StudentMeta) Snapshot {
	s.beginPass()
	s.meta = meta
	return s.Snapshot()
}

// AddSubject appends a blank row and moves focus to its name input.
func (s *Session) AddSubject(ctx context.Context) Snapshot {
	s.beginPass()
	index := s.list.Add()
	s.rows = append(s.rows, newRowState())
	ref := SubjectRef(index, FieldSubjectName)
	s.focus = &ref
	s.notify(ctx, NoticeSuccess, "Subject added successfully!")
	return s.Snapshot()
}

// RemoveSubject deletes a row. The last remaining row cannot be removed.
func (s *Session) RemoveSubject(ctx context.Context, index int) (Snapshot, error) {
	s.beginPass()
	if err := s.list.Remove(index); err != nil {
		if errors.Is(err, ErrLastSubject) {
			s.notify(ctx, NoticeError, "At least one subject is required!")
		}
		return s.Snapshot(), err
	}
	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	s.notify(ctx, NoticeInfo, "Subject removed!")
	return s.Snapshot(), nil
}

// EditSubject stores a new value for one input and validates that input
// on its own.
func (s *Session) EditSubject(ctx context.Context, index int, field SubjectField, value string) (Snapshot, error) {
	s.beginPass()
	if err := s.list.Update(index, field, value); err != nil {
		return s.Snapshot(), err
	}
	if field == FieldSubjectName {
		return s.Snapshot(), nil
	}

	entry, _ := s.list.At(index)
	s.apply(ctx, index, ValidateField(entry, field, s.bounds), true, field)
	return s.Snapshot(), nil
}

// BlurSubject validates the whole row when one of its inputs loses focus.
func (s *Session) BlurSubject(ctx context.Context, index int, field SubjectField) (Snapshot, error) {
	s.beginPass()
	entry, err := s.list.At(index)
	if err != nil {
		return s.Snapshot(), err
	}
	if _, err := entry.Value(field); err != nil {
		return s.Snapshot(), err
	}
	if field == FieldSubjectName {
		return s.Snapshot(), nil
	}

	s.apply(ctx, index, ValidateEntry(entry, s.bounds), field == FieldMarks, FieldMarks, FieldMaxMarks)
	return s.Snapshot(), nil
}

// apply clears the given flags of a row, then sets the one the verdict
// names, if any.
func (s *Session) apply(ctx context.Context, index int, verdict EntryVerdict, notify bool, clear ...SubjectField) {
	row := &s.rows[index]
	for _, f := range clear {
		delete(row.flags, f)
	}
	if !verdict.Valid {
		row.flags[verdict.Field] = true
		entry, _ := s.list.At(index)
		value, _ := entry.Value(verdict.Field)
		s.errors = append(s.errors, *apperrors.NewSubjectValidationError(index, string(verdict.Field), string(verdict.Reason), value))
		if notify && verdict.Notify {
			s.notify(ctx, NoticeError, verdict.Notice())
		}
	}
	row.settle()
}

// Import fills the form from externally parsed data. The subject list is
// replaced as a whole before anything is recomputed. Student information is
// overwritten when meta is given.
func (s *Session) Import(ctx context.Context, meta *StudentMeta, records []ImportRecord) Snapshot {
	s.beginPass()
	if meta != nil {
		s.meta.StudentName = meta.StudentName
		s.meta.RollNo = meta.RollNo
		s.meta.Branch = meta.Branch
		s.meta.Semester = meta.Semester
		s.meta.ExamType = meta.ExamType
		s.metaFlags = map[MetaField]bool{}
	}

	s.list.Replace(records)
	s.rows = make([]rowState, s.list.Len())
	for i := range s.rows {
		s.rows[i] = newRowState()
		if len(records) == 0 {
			continue
		}
		entry, _ := s.list.At(i)
		s.apply(ctx, i, ValidateEntry(entry, s.bounds), false)
	}

	s.notify(ctx, NoticeSuccess, fmt.Sprintf("Imported %d subject(s)", len(records)))
	return s.Snapshot()
}

// Reset clears the form back to a single default row.
func (s *Session) Reset(ctx context.Context) Snapshot {
	s.beginPass()
	s.meta = StudentMeta{}
	s.metaFlags = map[MetaField]bool{}
	s.list.Reset()
	s.rows = []rowState{newRowState()}
	ref := MetaRef(FieldStudentName)
	s.focus = &ref
	s.notify(ctx, NoticeInfo, "Form reset successfully!")
	return s.Snapshot()
}

// Submit validates the whole form. An invalid form is blocked with a
// *FormError and focus moves to the first flagged input. A valid form is
// handed to the transport while the submit guard is engaged; the guard is
// released only by its own timer.
func (s *Session) Submit(ctx context.Context) (SubmitOutcome, error) {
	if s.guard.Processing() {
		return SubmitOutcome{Snapshot: s.Snapshot()}, ErrSubmitInProgress
	}

	s.beginPass()
	verdict := ValidateFormWithBounds(s.meta, s.list.Entries(), s.bounds)
	s.applyVerdict(verdict)

	if !verdict.OK {
		s.errors = verdict.Issues
		if ref, ok := verdict.Focus(); ok {
			s.focus = &ref
		}
		s.notify(ctx, NoticeError, verdict.Message())
		return SubmitOutcome{Verdict: verdict, Snapshot: s.Snapshot()}, &FormError{Verdict: verdict}
	}

	if s.transport == nil {
		return SubmitOutcome{Verdict: verdict, Snapshot: s.Snapshot()}, ErrNoTransport
	}

	s.guard.Engage()
	receipt, err := s.transport.Submit(ctx, s.draft())
	if err != nil {
		s.notify(ctx, NoticeError, fmt.Sprintf("Error generating marksheet: %v", err))
		return SubmitOutcome{Verdict: verdict, Snapshot: s.Snapshot()}, err
	}

	s.notify(ctx, NoticeSuccess, "Marksheet generated successfully!")
	return SubmitOutcome{Verdict: verdict, Receipt: &receipt, Snapshot: s.Snapshot()}, nil
}

func (s *Session) applyVerdict(verdict FormVerdict) {
	touched := map[int]bool{}
	for _, ref := range verdict.Cleared {
		if ref.IsMeta() {
			delete(s.metaFlags, MetaField(ref.Field))
			continue
		}
		delete(s.rows[ref.Index].flags, SubjectField(ref.Field))
		touched[ref.Index] = true
	}
	for _, ref := range verdict.Flagged {
		if ref.IsMeta() {
			s.metaFlags[MetaField(ref.Field)] = true
			continue
		}
		s.rows[ref.Index].flags[SubjectField(ref.Field)] = true
		touched[ref.Index] = true
	}
	for i := range touched {
		s.rows[i].settle()
	}
}

func (s *Session) draft() Draft {
	var named []SubjectEntry
	for _, e := range s.list.Entries() {
		if e.InUse() {
			named = append(named, e)
		}
	}
	return Draft{
		Meta:      s.meta,
		Subjects:  named,
		Aggregate: Aggregate(named),
	}
}

// Close releases the submit guard timer.
func (s *Session) Close() {
	s.guard.Stop()
}
