// Package community contains the question/answer aggregate of the Tumae
// matching engine. The community collaborator owns the full records (title,
// body, tags, view counts); the engine only governs the acceptance lifecycle:
// a question starts Open, its owner accepts exactly one answer, and the
// question becomes Accepted forever.
package community

import (
	"time"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION STATE
// ══════════════════════════════════════════════════════════════════════════════

// QuestionState is the acceptance lifecycle state of a question.
type QuestionState string

const (
	// QuestionStateOpen - the question has no accepted answer yet.
	QuestionStateOpen QuestionState = "open"

	// QuestionStateAccepted - the owner accepted an answer. Terminal.
	QuestionStateAccepted QuestionState = "accepted"
)

// IsValid checks that the state is one of the known states.
func (s QuestionState) IsValid() bool {
	return s == QuestionStateOpen || s == QuestionStateAccepted
}

// IsTerminal returns true when no further transitions are possible.
func (s QuestionState) IsTerminal() bool {
	return s == QuestionStateAccepted
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION
// ══════════════════════════════════════════════════════════════════════════════

// Question is the engine's view of a community question: identity, owner,
// acceptance state, and the optimistic-concurrency version of the record.
type Question struct {
	// ID - question identifier.
	ID shared.QuestionID

	// OwnerID - the student who asked the question. Only the owner may accept.
	OwnerID shared.UserID

	// State - acceptance lifecycle state.
	State QuestionState

	// AcceptedAnswerID - the accepted answer, zero while Open.
	AcceptedAnswerID shared.AnswerID

	// Version - storage record version, bumped on every state write.
	// Used for the optimistic check-and-flip during Accept.
	Version int64

	// CreatedAt - when the question was asked.
	CreatedAt time.Time
}

// NewQuestion creates an Open question with validation.
func NewQuestion(id shared.QuestionID, ownerID shared.UserID) (*Question, error) {
	if !id.IsValid() {
		return nil, shared.NewDomainError("community", "NewQuestion", shared.ErrInvalidID, "invalid question id")
	}
	if !ownerID.IsValid() {
		return nil, shared.ErrInvalidQuestionOwner
	}
	return &Question{
		ID:        id,
		OwnerID:   ownerID,
		State:     QuestionStateOpen,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsOpen returns true while the question can still accept an answer.
func (q *Question) IsOpen() bool {
	return q.State == QuestionStateOpen
}

// IsAccepted returns true once an answer has been accepted.
func (q *Question) IsAccepted() bool {
	return q.State == QuestionStateAccepted
}

// IsOwnedBy checks question ownership.
func (q *Question) IsOwnedBy(userID shared.UserID) bool {
	return q.OwnerID == userID
}

// CanAccept validates the acceptance preconditions against this question
// and the candidate answer. It returns the first violated rule:
// ErrNotQuestionOwner, ErrQuestionAccepted, or ErrAnswerMismatch.
// The check is pure; the atomic flip happens in storage.
func (q *Question) CanAccept(answer *Answer, callerID shared.UserID) error {
	if answer == nil {
		return shared.ErrAnswerNotFound
	}
	if !q.IsOwnedBy(callerID) {
		return shared.ErrNotQuestionOwner
	}
	if q.IsAccepted() {
		return shared.ErrQuestionAccepted
	}
	if answer.QuestionID != q.ID {
		return shared.ErrAnswerMismatch
	}
	return nil
}

// MarkAccepted applies the accepted state in memory. Storage implementations
// call this after a successful conditional write so the in-memory view
// matches the durable one.
func (q *Question) MarkAccepted(answerID shared.AnswerID) error {
	if q.IsAccepted() {
		return shared.ErrQuestionAccepted
	}
	q.State = QuestionStateAccepted
	q.AcceptedAnswerID = answerID
	q.Version++
	return nil
}

// Clone returns a copy of the question.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	clone := *q
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// ANSWER
// ══════════════════════════════════════════════════════════════════════════════

// Answer is the engine's view of an answer: identity, parent question,
// author, and the accepted flag. At most one answer per question may have
// Accepted == true; the invariant is enforced by the accept transaction,
// not by storage alone.
type Answer struct {
	// ID - answer identifier.
	ID shared.AnswerID

	// QuestionID - the parent question.
	QuestionID shared.QuestionID

	// AuthorID - the tutor who wrote the answer.
	AuthorID shared.UserID

	// Accepted - whether this answer was chosen by the question owner.
	Accepted bool

	// CreatedAt - when the answer was posted.
	CreatedAt time.Time
}

// NewAnswer creates an answer with validation.
func NewAnswer(id shared.AnswerID, questionID shared.QuestionID, authorID shared.UserID) (*Answer, error) {
	if !id.IsValid() {
		return nil, shared.NewDomainError("community", "NewAnswer", shared.ErrInvalidID, "invalid answer id")
	}
	if !questionID.IsValid() {
		return nil, shared.NewDomainError("community", "NewAnswer", shared.ErrInvalidID, "invalid question id")
	}
	if !authorID.IsValid() {
		return nil, shared.NewDomainError("community", "NewAnswer", shared.ErrInvalidID, "invalid author id")
	}
	return &Answer{
		ID:         id,
		QuestionID: questionID,
		AuthorID:   authorID,
		Accepted:   false,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Clone returns a copy of the answer.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
