package community

import (
	"context"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// AcceptanceStore is the persistence contract for the acceptance lifecycle.
// Implementations live in the infrastructure layer (PostgreSQL, in-memory).
//
// The store owns the transaction boundary: CommitAcceptance flips the
// question state, marks the answer accepted, and increments the author's
// reputation counter as one atomic unit. A commit that succeeds is fully
// visible; a commit that fails leaves no partial state behind.
type AcceptanceStore interface {
	// GetQuestion returns the engine's view of a question.
	// Returns shared.ErrQuestionNotFound if the question does not exist.
	GetQuestion(ctx context.Context, id shared.QuestionID) (*Question, error)

	// GetAnswer returns the engine's view of an answer.
	// Returns shared.ErrAnswerNotFound if the answer does not exist.
	GetAnswer(ctx context.Context, id shared.AnswerID) (*Answer, error)

	// CommitAcceptance atomically, in one transaction:
	//   1. sets the question state to Accepted, conditional on the question
	//      still being Open at the given version;
	//   2. sets the answer's accepted flag;
	//   3. increments the answer author's reputation counter by one.
	// Returns the tutor's new reputation value.
	//
	// When the conditional write finds a different version it returns
	// shared.ErrVersionMismatch without committing anything. The caller
	// re-reads and either retries or reports a conflict.
	CommitAcceptance(ctx context.Context, questionID shared.QuestionID, version int64, answerID shared.AnswerID, tutorID shared.UserID) (int64, error)
}
