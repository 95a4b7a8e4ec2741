package marksheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct {
	level   NoticeLevel
	message string
}

type recordingNotifier struct {
	notices []notice
}

func (r *recordingNotifier) Notify(_ context.Context, level NoticeLevel, message string) {
	r.notices = append(r.notices, notice{level, message})
}

func (r *recordingNotifier) last() notice {
	if len(r.notices) == 0 {
		return notice{}
	}
	return r.notices[len(r.notices)-1]
}

type stubTransport struct {
	drafts []Draft
	err    error
}

func (s *stubTransport) Submit(_ context.Context, draft Draft) (Receipt, error) {
	s.drafts = append(s.drafts, draft)
	if s.err != nil {
		return Receipt{}, s.err
	}
	return Receipt{ID: uint(len(s.drafts))}, nil
}

func newTestSession(transport Transport) (*Session, *recordingNotifier) {
	notifier := &recordingNotifier{}
	s := NewSession(Options{Notifier: notifier, Transport: transport, SubmitFallback: time.Hour})
	return s, notifier
}

func TestSession_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()

	snap := s.AddSubject(ctx)
	require.Len(t, snap.Subjects, 2)
	require.NotNil(t, snap.Focus)
	assert.Equal(t, SubjectRef(1, FieldSubjectName), *snap.Focus)
	assert.Equal(t, notice{NoticeSuccess, "Subject added successfully!"}, notifier.last())

	snap, err := s.RemoveSubject(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, snap.Subjects, 1)
	assert.Equal(t, notice{NoticeInfo, "Subject removed!"}, notifier.last())

	snap, err = s.RemoveSubject(ctx, 0)
	assert.ErrorIs(t, err, ErrLastSubject)
	assert.Len(t, snap.Subjects, 1)
	assert.Equal(t, notice{NoticeError, "At least one subject is required!"}, notifier.last())
}

func TestSession_EditTransitions(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()

	snap := s.Snapshot()
	assert.Equal(t, StateUntouched, snap.Subjects[0].State)

	_, err := s.EditSubject(ctx, 0, FieldSubjectName, "Math")
	require.NoError(t, err)
	_, err = s.EditSubject(ctx, 0, FieldMaxMarks, "50")
	require.NoError(t, err)

	snap, err = s.EditSubject(ctx, 0, FieldMarks, "60")
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, snap.Subjects[0].State)
	assert.Equal(t, []SubjectField{FieldMarks}, snap.Subjects[0].Flags)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, string(ReasonExceedsMax), snap.Errors[0].Message)
	assert.Equal(t, notice{NoticeError, "Marks cannot exceed 50!"}, notifier.last())
	assert.Equal(t, 0, snap.Aggregate.TotalMaxMarks)

	snap, err = s.EditSubject(ctx, 0, FieldMarks, "45")
	require.NoError(t, err)
	assert.Equal(t, StateValid, snap.Subjects[0].State)
	assert.Empty(t, snap.Subjects[0].Flags)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, "90.00%", snap.PercentageLabel)
	assert.Equal(t, GradeAPlus, snap.Aggregate.Grade)
	assert.Equal(t, "grade-aplus", snap.GradeClass)
}

func TestSession_BlurValidatesWholeRow(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()

	_, _ = s.EditSubject(ctx, 0, FieldMarks, "80")
	_, _ = s.EditSubject(ctx, 0, FieldMaxMarks, "50")
	before := len(notifier.notices)

	snap, err := s.BlurSubject(ctx, 0, FieldMaxMarks)
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, snap.Subjects[0].State)
	assert.Equal(t, []SubjectField{FieldMarks}, snap.Subjects[0].Flags)
	assert.Len(t, notifier.notices, before, "leaving the max marks input flags the row silently")

	snap, err = s.BlurSubject(ctx, 0, FieldMarks)
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, snap.Subjects[0].State)
	require.Len(t, notifier.notices, before+1)
	assert.Equal(t, NoticeError, notifier.last().level)
	assert.Equal(t, "Marks cannot exceed 50!", notifier.last().message)

	_, err = s.BlurSubject(ctx, 0, SubjectField("bogus"))
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = s.BlurSubject(ctx, 4, FieldMarks)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSession_ImportReplacesList(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()
	s.AddSubject(ctx)
	s.AddSubject(ctx)

	meta := completeMeta()
	snap := s.Import(ctx, &meta, []ImportRecord{{Name: "Phy", MarksObtained: 70}})

	require.Len(t, snap.Subjects, 1)
	assert.Equal(t, "100", snap.Subjects[0].MaxMarks)
	assert.Equal(t, StateValid, snap.Subjects[0].State)
	assert.Equal(t, 70.0, snap.Aggregate.Percentage)
	assert.Equal(t, "70.00%", snap.PercentageLabel)
	assert.Equal(t, meta.RollNo, snap.Meta.RollNo)
	assert.Equal(t, NoticeSuccess, notifier.last().level)
}

func TestSession_ImportFlagsBadRowsWithoutNotices(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()
	fifty := 50

	snap := s.Import(ctx, nil, []ImportRecord{
		{Name: "Math", MarksObtained: 60, MaxMarks: &fifty},
		{Name: "Art", MarksObtained: 30},
	})

	assert.Equal(t, StateInvalid, snap.Subjects[0].State)
	assert.Equal(t, StateValid, snap.Subjects[1].State)
	require.Len(t, notifier.notices, 1)
	assert.Equal(t, NoticeSuccess, notifier.notices[0].level)
	assert.Equal(t, 30, snap.Aggregate.TotalMarks)
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	s, notifier := newTestSession(nil)
	defer s.Close()
	s.SetMeta(completeMeta())
	s.AddSubject(ctx)
	_, _ = s.EditSubject(ctx, 0, FieldMarks, "77")

	snap := s.Reset(ctx)

	require.Len(t, snap.Subjects, 1)
	assert.Equal(t, "100", snap.Subjects[0].MaxMarks)
	assert.Empty(t, snap.Subjects[0].MarksObtained)
	assert.Equal(t, 0.0, snap.Aggregate.Percentage)
	assert.Equal(t, StudentMeta{}, snap.Meta)
	assert.Equal(t, MetaRef(FieldStudentName), *snap.Focus)
	assert.Equal(t, notice{NoticeInfo, "Form reset successfully!"}, notifier.last())
}

func TestSession_SubmitBlocked(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{}
	s, notifier := newTestSession(transport)
	defer s.Close()

	outcome, err := s.Submit(ctx)

	var formErr *FormError
	require.ErrorAs(t, err, &formErr)
	assert.False(t, outcome.Verdict.OK)
	assert.Contains(t, outcome.Verdict.Errors, NoSubjectsMessage)
	require.NotNil(t, outcome.Snapshot.Focus)
	assert.Equal(t, MetaRef(FieldStudentName), *outcome.Snapshot.Focus)
	assert.Len(t, outcome.Snapshot.MetaFlags, len(RequiredMetaFields))
	assert.Equal(t, NoticeError, notifier.last().level)
	assert.Equal(t, outcome.Verdict.Message(), notifier.last().message)
	assert.Empty(t, transport.drafts)
	assert.False(t, outcome.Snapshot.Processing)
}

func TestSession_SubmitSuccessEngagesGuard(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{}
	s, notifier := newTestSession(transport)
	defer s.Close()
	s.SetMeta(completeMeta())
	_, _ = s.EditSubject(ctx, 0, FieldSubjectName, "Math")
	_, _ = s.EditSubject(ctx, 0, FieldMarks, "50")
	s.AddSubject(ctx)

	outcome, err := s.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, outcome.Receipt)
	assert.Equal(t, uint(1), outcome.Receipt.ID)
	assert.True(t, outcome.Snapshot.Processing)
	assert.Equal(t, NoticeSuccess, notifier.last().level)

	require.Len(t, transport.drafts, 1)
	assert.Len(t, transport.drafts[0].Subjects, 1)
	assert.Equal(t, 50.0, transport.drafts[0].Aggregate.Percentage)

	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.Len(t, transport.drafts, 1)
}

func TestSession_SubmitTransportFailure(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{err: errors.New("connection refused")}
	s, notifier := newTestSession(transport)
	defer s.Close()
	s.SetMeta(completeMeta())
	_, _ = s.EditSubject(ctx, 0, FieldSubjectName, "Math")
	_, _ = s.EditSubject(ctx, 0, FieldMarks, "50")

	_, err := s.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, notice{NoticeError, "Error generating marksheet: connection refused"}, notifier.last())
	assert.True(t, s.Guard().Processing())
}

func TestSession_SubmitWithoutTransport(t *testing.T) {
	s, _ := newTestSession(nil)
	defer s.Close()
	s.SetMeta(completeMeta())
	_, _ = s.EditSubject(context.Background(), 0, FieldSubjectName, "Math")
	_, _ = s.EditSubject(context.Background(), 0, FieldMarks, "50")

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestSession_ErrorsDoNotCarryOver(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(nil)
	defer s.Close()

	snap, _ := s.EditSubject(ctx, 0, FieldMarks, "abc")
	require.Len(t, snap.Errors, 1)

	snap = s.AddSubject(ctx)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, StateInvalid, snap.Subjects[0].State)
}
