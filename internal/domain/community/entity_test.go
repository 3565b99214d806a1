package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

func openQuestion(t *testing.T) *Question {
	t.Helper()
	q, err := NewQuestion(100, 1)
	require.NoError(t, err)
	return q
}

func answerFor(t *testing.T, id shared.AnswerID, questionID shared.QuestionID, authorID shared.UserID) *Answer {
	t.Helper()
	a, err := NewAnswer(id, questionID, authorID)
	require.NoError(t, err)
	return a
}

func TestNewQuestion(t *testing.T) {
	q := openQuestion(t)

	assert.Equal(t, QuestionStateOpen, q.State)
	assert.True(t, q.IsOpen())
	assert.False(t, q.IsAccepted())
	assert.EqualValues(t, 1, q.Version)
	assert.Zero(t, q.AcceptedAnswerID)

	_, err := NewQuestion(0, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewQuestion(1, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidQuestionOwner)
}

func TestQuestion_CanAccept(t *testing.T) {
	q := openQuestion(t)
	answer := answerFor(t, 200, q.ID, 2)

	assert.NoError(t, q.CanAccept(answer, q.OwnerID))
}

func TestQuestion_CanAccept_NilAnswer(t *testing.T) {
	q := openQuestion(t)

	assert.ErrorIs(t, q.CanAccept(nil, q.OwnerID), shared.ErrAnswerNotFound)
}

func TestQuestion_CanAccept_NotOwner(t *testing.T) {
	q := openQuestion(t)
	answer := answerFor(t, 200, q.ID, 2)

	err := q.CanAccept(answer, 99)
	assert.ErrorIs(t, err, shared.ErrNotQuestionOwner)
	assert.True(t, shared.IsForbidden(err))
}

func TestQuestion_CanAccept_AlreadyAccepted(t *testing.T) {
	q := openQuestion(t)
	answer := answerFor(t, 200, q.ID, 2)
	require.NoError(t, q.MarkAccepted(answer.ID))

	// A second accept conflicts even when it names the answer that was
	// already chosen.
	err := q.CanAccept(answer, q.OwnerID)
	assert.ErrorIs(t, err, shared.ErrQuestionAccepted)
	assert.True(t, shared.IsConflict(err))

	other := answerFor(t, 201, q.ID, 3)
	assert.ErrorIs(t, q.CanAccept(other, q.OwnerID), shared.ErrQuestionAccepted)
}

func TestQuestion_CanAccept_AnswerMismatch(t *testing.T) {
	q := openQuestion(t)
	foreign := answerFor(t, 200, q.ID+1, 2)

	assert.ErrorIs(t, q.CanAccept(foreign, q.OwnerID), shared.ErrAnswerMismatch)
}

func TestQuestion_CanAccept_OwnershipCheckedBeforeState(t *testing.T) {
	q := openQuestion(t)
	answer := answerFor(t, 200, q.ID, 2)
	require.NoError(t, q.MarkAccepted(answer.ID))

	// A non-owner on an accepted question gets the ownership error, not
	// the conflict: callers must not learn state they cannot act on.
	assert.ErrorIs(t, q.CanAccept(answer, 99), shared.ErrNotQuestionOwner)
}

func TestQuestion_MarkAccepted(t *testing.T) {
	q := openQuestion(t)

	require.NoError(t, q.MarkAccepted(200))

	assert.Equal(t, QuestionStateAccepted, q.State)
	assert.True(t, q.IsAccepted())
	assert.True(t, q.State.IsTerminal())
	assert.EqualValues(t, 200, q.AcceptedAnswerID)
	assert.EqualValues(t, 2, q.Version)

	// Terminal state: a second transition is refused.
	assert.ErrorIs(t, q.MarkAccepted(201), shared.ErrQuestionAccepted)
	assert.EqualValues(t, 200, q.AcceptedAnswerID)
	assert.EqualValues(t, 2, q.Version)
}

func TestQuestion_Clone(t *testing.T) {
	q := openQuestion(t)
	clone := q.Clone()

	require.NoError(t, clone.MarkAccepted(200))

	assert.True(t, q.IsOpen(), "mutating the clone must not touch the original")
	assert.True(t, clone.IsAccepted())

	var nilQ *Question
	assert.Nil(t, nilQ.Clone())
}

func TestNewAnswer(t *testing.T) {
	a := answerFor(t, 200, 100, 2)

	assert.False(t, a.Accepted)
	assert.EqualValues(t, 100, a.QuestionID)
	assert.EqualValues(t, 2, a.AuthorID)

	_, err := NewAnswer(0, 100, 2)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewAnswer(200, 0, 2)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewAnswer(200, 100, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
