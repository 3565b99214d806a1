// Package postgres implements the PostgreSQL persistence layer of the Tumae
// matching engine.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPTANCE STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CommunityRepository implements community.AcceptanceStore for PostgreSQL.
type CommunityRepository struct {
	conn *Connection
}

// NewCommunityRepository creates a new CommunityRepository.
func NewCommunityRepository(conn *Connection) *CommunityRepository {
	return &CommunityRepository{conn: conn}
}

// GetQuestion returns the engine's view of a question.
func (r *CommunityRepository) GetQuestion(ctx context.Context, id shared.QuestionID) (*community.Question, error) {
	var q community.Question
	var qID, ownerID int64
	var state string
	var acceptedAnswerID *int64

	err := r.conn.QueryRow(ctx, `
		SELECT id, owner_id, state, accepted_answer_id, version, created_at
		FROM questions
		WHERE id = $1
	`, id.Int64()).Scan(
		&qID,
		&ownerID,
		&state,
		&acceptedAnswerID,
		&q.Version,
		&q.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	q.ID = shared.QuestionID(qID)
	q.OwnerID = shared.UserID(ownerID)
	q.State = community.QuestionState(state)
	if acceptedAnswerID != nil {
		q.AcceptedAnswerID = shared.AnswerID(*acceptedAnswerID)
	}

	return &q, nil
}

// GetAnswer returns the engine's view of an answer.
func (r *CommunityRepository) GetAnswer(ctx context.Context, id shared.AnswerID) (*community.Answer, error) {
	var a community.Answer
	var aID, questionID, authorID int64

	err := r.conn.QueryRow(ctx, `
		SELECT id, question_id, author_id, accepted, created_at
		FROM answers
		WHERE id = $1
	`, id.Int64()).Scan(
		&aID,
		&questionID,
		&authorID,
		&a.Accepted,
		&a.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	a.ID = shared.AnswerID(aID)
	a.QuestionID = shared.QuestionID(questionID)
	a.AuthorID = shared.UserID(authorID)

	return &a, nil
}

// CommitAcceptance flips the question to accepted, marks the answer, and
// increments the author's counter in one transaction. The UPDATE is
// conditional on (state = 'open' AND version = $expected): when another
// commit got there first the row count is zero and nothing is written.
//
// The question row is the serialization point. Two concurrent accepts on
// the same question contend on its row lock; the loser's conditional
// UPDATE then matches nothing and the call reports a version mismatch.
// Accepts on different questions touch disjoint rows and never block
// each other.
func (r *CommunityRepository) CommitAcceptance(ctx context.Context, questionID shared.QuestionID, version int64, answerID shared.AnswerID, tutorID shared.UserID) (int64, error) {
	var newReputation int64

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE questions
			SET state = 'accepted',
			    accepted_answer_id = $2,
			    version = version + 1,
			    updated_at = NOW()
			WHERE id = $1 AND state = 'open' AND version = $3
		`, questionID.Int64(), answerID.Int64(), version)
		if err != nil {
			return fmt.Errorf("failed to flip question state: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrVersionMismatch
		}

		tag, err = tx.Exec(ctx, `
			UPDATE answers
			SET accepted = TRUE
			WHERE id = $1 AND question_id = $2
		`, answerID.Int64(), questionID.Int64())
		if err != nil {
			return fmt.Errorf("failed to mark answer accepted: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrAnswerNotFound
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO reputation_records (tutor_id, accepted_count, updated_at)
			VALUES ($1, 1, NOW())
			ON CONFLICT (tutor_id) DO UPDATE
			SET accepted_count = reputation_records.accepted_count + 1,
			    updated_at = NOW()
			RETURNING accepted_count
		`, tutorID.Int64()).Scan(&newReputation)
		if err != nil {
			return fmt.Errorf("failed to increment reputation: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return newReputation, nil
}

// Ensure interface is implemented
var _ community.AcceptanceStore = (*CommunityRepository)(nil)
