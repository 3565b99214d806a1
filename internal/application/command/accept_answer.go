// Package command contains write operations following the CQRS pattern.
// Each command is a self-contained use case with its own request/result
// types and explicit dependencies on domain contracts.
package command

import (
	"context"
	"errors"

	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/pkg/logger"
	"github.com/tumae-app/tumae-match-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPT ANSWER COMMAND
// The question owner marks one answer as the chosen solution. Irreversible:
// the question leaves Open, the answer is flagged accepted, and the answer
// author's reputation counter is incremented - all in one transaction.
// ══════════════════════════════════════════════════════════════════════════════

// EventPublisher publishes domain events after successful commands.
// A nil publisher disables event publication.
type EventPublisher interface {
	Publish(event shared.Event) error
}

// AcceptAnswerCommand carries the accept request.
type AcceptAnswerCommand struct {
	// QuestionID - the question being resolved.
	QuestionID shared.QuestionID

	// AnswerID - the answer the owner chose.
	AnswerID shared.AnswerID

	// CallerID - the authenticated caller, supplied by the identity
	// collaborator and trusted as-is.
	CallerID shared.UserID
}

// Validate checks the command parameters.
func (c AcceptAnswerCommand) Validate() error {
	if !c.QuestionID.IsValid() {
		return shared.NewDomainError("command", "AcceptAnswer", shared.ErrInvalidID, "invalid question id")
	}
	if !c.AnswerID.IsValid() {
		return shared.NewDomainError("command", "AcceptAnswer", shared.ErrInvalidID, "invalid answer id")
	}
	if !c.CallerID.IsValid() {
		return shared.NewDomainError("command", "AcceptAnswer", shared.ErrInvalidID, "invalid caller id")
	}
	return nil
}

// AcceptAnswerResult reports the committed acceptance.
type AcceptAnswerResult struct {
	// QuestionID - the resolved question.
	QuestionID shared.QuestionID `json:"question_id"`

	// AnswerID - the accepted answer.
	AnswerID shared.AnswerID `json:"answer_id"`

	// TutorID - the author of the accepted answer.
	TutorID shared.UserID `json:"tutor_id"`

	// NewReputation - the tutor's counter value after the increment.
	NewReputation int64 `json:"new_reputation"`
}

// AcceptAnswerHandler drives the acceptance state machine.
type AcceptAnswerHandler struct {
	store   community.AcceptanceStore
	bus     EventPublisher
	log     *logger.Logger
	retrier *retry.Retrier
}

// NewAcceptAnswerHandler creates a new handler.
func NewAcceptAnswerHandler(store community.AcceptanceStore, bus EventPublisher, log *logger.Logger) *AcceptAnswerHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AcceptAnswerHandler{
		store:   store,
		bus:     bus,
		log:     log.With(logger.Component("accept_answer")),
		retrier: retry.OptimisticLockRetrier(),
	}
}

// Handle executes the accept. Two concurrent calls on the same question are
// serialized by the storage-level version check: the loser of the race
// re-reads, observes the Accepted state, and receives the conflict error.
// Calls on different questions never block each other.
//
// A version mismatch that survives the bounded retry is reported as a
// conflict; callers never see a raw mismatch.
func (h *AcceptAnswerHandler) Handle(ctx context.Context, cmd AcceptAnswerCommand) (*AcceptAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result AcceptAnswerResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		question, err := h.store.GetQuestion(ctx, cmd.QuestionID)
		if err != nil {
			return retry.Permanent(err)
		}

		answer, err := h.store.GetAnswer(ctx, cmd.AnswerID)
		if err != nil {
			return retry.Permanent(err)
		}

		// Re-invoking accept on an already-accepted question always
		// conflicts, even when it names the previously accepted answer:
		// no silent no-op, no double increment.
		if err := question.CanAccept(answer, cmd.CallerID); err != nil {
			return retry.Permanent(err)
		}

		newReputation, err := h.store.CommitAcceptance(ctx, question.ID, question.Version, answer.ID, answer.AuthorID)
		if err != nil {
			if errors.Is(err, shared.ErrVersionMismatch) {
				// Someone committed between our read and write. The next
				// attempt re-reads and resolves to success or conflict.
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		result = AcceptAnswerResult{
			QuestionID:    question.ID,
			AnswerID:      answer.ID,
			TutorID:       answer.AuthorID,
			NewReputation: newReputation,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrVersionMismatch) {
			return nil, shared.ErrQuestionAccepted
		}
		return nil, err
	}

	h.log.Info("answer accepted",
		logger.QuestionID(result.QuestionID.Int64()),
		logger.AnswerID(result.AnswerID.Int64()),
		logger.TutorID(result.TutorID.Int64()),
		logger.Reputation(result.NewReputation),
	)

	h.publishAccepted(cmd, result)

	return &result, nil
}

// publishAccepted emits the domain event. Publication is best-effort:
// the acceptance is already durable, so a bus failure only costs a
// cache refresh, never the invariant.
func (h *AcceptAnswerHandler) publishAccepted(cmd AcceptAnswerCommand, result AcceptAnswerResult) {
	if h.bus == nil {
		return
	}

	event := shared.NewAnswerAcceptedEvent(
		result.QuestionID,
		result.AnswerID,
		cmd.CallerID,
		result.TutorID,
		result.NewReputation,
	)
	if err := h.bus.Publish(event); err != nil {
		h.log.Warn("failed to publish answer accepted event",
			logger.QuestionID(result.QuestionID.Int64()),
			logger.Err(err),
		)
	}
}
