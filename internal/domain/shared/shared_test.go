package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage_Normalization(t *testing.T) {
	assert.Equal(t, Page{Offset: 0, Limit: DefaultPageSize}, NewPage(-5, 0))
	assert.Equal(t, Page{Offset: 10, Limit: 50}, NewPage(10, 50))
	assert.Equal(t, Page{Offset: 0, Limit: MaxPageSize}, NewPage(0, 1000))
}

func TestPage_Slice(t *testing.T) {
	page := Page{Offset: 2, Limit: 3}

	from, to := page.Slice(10)
	assert.Equal(t, 2, from)
	assert.Equal(t, 5, to)

	// Truncated at the end.
	from, to = page.Slice(4)
	assert.Equal(t, 2, from)
	assert.Equal(t, 4, to)

	// Offset past the end yields an empty window.
	from, to = page.Slice(1)
	assert.Equal(t, 1, from)
	assert.Equal(t, 1, to)

	from, to = page.Slice(0)
	assert.Equal(t, 0, from)
	assert.Equal(t, 0, to)
}

func TestPage_Validate(t *testing.T) {
	assert.NoError(t, Page{Offset: 0, Limit: 0}.Validate())
	assert.NoError(t, Page{Offset: 5, Limit: 20}.Validate())

	assert.ErrorIs(t, Page{Offset: -1}.Validate(), ErrNegativeValue)
	assert.ErrorIs(t, Page{Limit: -1}.Validate(), ErrNegativeValue)
}

func TestDomainError_Matching(t *testing.T) {
	// Sentinel errors match their kind through errors.Is.
	assert.True(t, errors.Is(ErrQuestionNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrNotQuestionOwner, ErrForbidden))
	assert.True(t, errors.Is(ErrQuestionAccepted, ErrConflict))
	assert.True(t, errors.Is(ErrEmptySubject, ErrEmptyValue))

	// Wrapped errors keep both the kind and the cause visible.
	cause := errors.New("connection refused")
	wrapped := WrapError("reputation", "Increment", ErrStorage, "write failed", cause)
	assert.True(t, errors.Is(wrapped, ErrStorage))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(ErrTutorNotFound))
	assert.True(t, IsForbidden(ErrNotQuestionOwner))
	assert.True(t, IsConflict(ErrQuestionAccepted))
	assert.True(t, IsValidation(ErrEmptySubject))
	assert.True(t, IsValidation(ErrNonPositiveDelta))
	assert.True(t, IsRetryable(ErrVersionMismatch))

	assert.False(t, IsNotFound(ErrQuestionAccepted))
	assert.False(t, IsConflict(ErrTutorNotFound))
	assert.False(t, IsValidation(ErrQuestionAccepted))
}

func TestUserID_Validation(t *testing.T) {
	id, err := NewUserID(42)
	assert.NoError(t, err)
	assert.Equal(t, UserID(42), id)

	_, err = NewUserID(0)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = NewUserID(-1)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAnswerAcceptedEvent(t *testing.T) {
	event := NewAnswerAcceptedEvent(100, 200, 1, 2, 5)

	assert.Equal(t, EventAnswerAccepted, event.EventType())
	assert.Equal(t, "100", event.AggregateID())
	assert.False(t, event.OccurredAt().IsZero())

	payload := event.Payload()
	assert.EqualValues(t, 100, payload["question_id"])
	assert.EqualValues(t, 200, payload["answer_id"])
	assert.EqualValues(t, 2, payload["tutor_id"])
	assert.EqualValues(t, 5, payload["new_reputation"])
}
