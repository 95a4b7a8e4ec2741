package marksheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectList_StartsWithOneDefaultRow(t *testing.T) {
	list := NewSubjectList()

	require.Equal(t, 1, list.Len())
	entry, err := list.At(0)
	require.NoError(t, err)
	assert.Equal(t, "100", entry.MaxMarks)
	assert.Empty(t, entry.MarksObtained)
}

func TestSubjectList_RemoveLastRejected(t *testing.T) {
	list := NewSubjectList()

	err := list.Remove(0)
	assert.ErrorIs(t, err, ErrLastSubject)
	assert.Equal(t, 1, list.Len())

	list.Add()
	require.NoError(t, list.Remove(0))
	assert.Equal(t, 1, list.Len())
	assert.ErrorIs(t, list.Remove(0), ErrLastSubject)
}

func TestSubjectList_AddUpdateRemoveKeepsOrder(t *testing.T) {
	list := NewSubjectList()
	require.NoError(t, list.Update(0, FieldSubjectName, "Math"))
	idx := list.Add()
	assert.Equal(t, 1, idx)
	require.NoError(t, list.Update(1, FieldSubjectName, "Physics"))
	list.Add()
	require.NoError(t, list.Update(2, FieldSubjectName, "Chemistry"))

	require.NoError(t, list.Remove(1))

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Math", entries[0].Name)
	assert.Equal(t, "Chemistry", entries[1].Name)
}

func TestSubjectList_Errors(t *testing.T) {
	list := NewSubjectList()

	assert.ErrorIs(t, list.Remove(3), ErrIndexOutOfRange)
	assert.ErrorIs(t, list.Update(-1, FieldMarks, "1"), ErrIndexOutOfRange)
	assert.ErrorIs(t, list.Update(0, SubjectField("grade"), "A"), ErrUnknownField)
	_, err := list.At(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSubjectList_EntriesIsACopy(t *testing.T) {
	list := NewSubjectList()
	entries := list.Entries()
	entries[0].Name = "mutated"

	entry, _ := list.At(0)
	assert.Empty(t, entry.Name)
}

func TestSubjectList_Replace(t *testing.T) {
	list := NewSubjectList()
	list.Add()
	fifty := 50

	list.Replace([]ImportRecord{
		{Name: "Phy", MarksObtained: 70},
		{Name: "Chem", MarksObtained: 40, MaxMarks: &fifty},
	})

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, SubjectEntry{Name: "Phy", MarksObtained: "70", MaxMarks: "100"}, entries[0])
	assert.Equal(t, SubjectEntry{Name: "Chem", MarksObtained: "40", MaxMarks: "50"}, entries[1])

	list.Replace(nil)
	assert.Equal(t, 1, list.Len())
}

func TestImportRecord_EffectiveMaxMarks(t *testing.T) {
	thirty := 30

	assert.Equal(t, DefaultMaxMarks, ImportRecord{Name: "Phy"}.EffectiveMaxMarks())
	assert.Equal(t, 30, ImportRecord{Name: "Bio", MaxMarks: &thirty}.EffectiveMaxMarks())
	assert.Equal(t, "30", ImportRecord{Name: "Bio", MarksObtained: 12, MaxMarks: &thirty}.Entry().MaxMarks)
}

func TestSubjectList_Reset(t *testing.T) {
	list := NewSubjectList()
	list.Add()
	list.Add()
	require.NoError(t, list.Update(0, FieldMarks, "90"))

	list.Reset()

	require.Equal(t, 1, list.Len())
	entry, _ := list.At(0)
	assert.Equal(t, NewSubjectEntry(), entry)
	assert.Equal(t, 0.0, Aggregate(list.Entries()).Percentage)
}
