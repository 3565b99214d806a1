// Package postgres implements the PostgreSQL persistence layer of the Tumae
// matching engine.
package postgres

import (
	"context"
	"fmt"

	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COUNTER STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ReputationRepository implements reputation.CounterStore for PostgreSQL.
type ReputationRepository struct {
	conn *Connection
}

// NewReputationRepository creates a new ReputationRepository.
func NewReputationRepository(conn *Connection) *ReputationRepository {
	return &ReputationRepository{conn: conn}
}

// Increment adds delta to the tutor's counter via an atomic upsert. The
// row-level lock of the upsert makes concurrent increments for the same
// tutor linearizable; different tutors hit different rows.
func (r *ReputationRepository) Increment(ctx context.Context, tutorID shared.UserID, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, shared.ErrNonPositiveDelta
	}

	var newValue int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO reputation_records (tutor_id, accepted_count, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tutor_id) DO UPDATE
		SET accepted_count = reputation_records.accepted_count + $2,
		    updated_at = NOW()
		RETURNING accepted_count
	`, tutorID.Int64(), delta).Scan(&newValue)
	if err != nil {
		return 0, fmt.Errorf("failed to increment reputation: %w", err)
	}

	return newValue, nil
}

// Get returns the tutor's counter value, 0 when no record exists.
func (r *ReputationRepository) Get(ctx context.Context, tutorID shared.UserID) (int64, error) {
	var value int64
	err := r.conn.QueryRow(ctx, `
		SELECT accepted_count FROM reputation_records WHERE tutor_id = $1
	`, tutorID.Int64()).Scan(&value)

	if IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get reputation: %w", err)
	}

	return value, nil
}

// RangeByDescendingValue returns the ranking page. The filter joins the
// tutor profile tables; the ORDER BY mirrors the idx_reputation_ranking
// index so the scan stays ordered.
func (r *ReputationRepository) RangeByDescendingValue(ctx context.Context, filter reputation.RankingFilter, page shared.Page) ([]reputation.RankedTutor, error) {
	query := `
		SELECT rr.tutor_id, rr.accepted_count
		FROM reputation_records rr
	`

	args := []interface{}{}
	argIndex := 1

	if filter.Subject != 0 {
		query += fmt.Sprintf(`
		JOIN tutor_subjects ts ON ts.tutor_id = rr.tutor_id AND ts.subject_id = $%d`, argIndex)
		args = append(args, int64(filter.Subject))
		argIndex++
	}
	if !filter.Region.IsZero() {
		query += fmt.Sprintf(`
		JOIN tutor_profiles tp ON tp.tutor_id = rr.tutor_id AND tp.region_id = $%d`, argIndex)
		args = append(args, int64(filter.Region))
		argIndex++
	}

	query += fmt.Sprintf(`
		ORDER BY rr.accepted_count DESC, rr.tutor_id ASC
		LIMIT $%d OFFSET $%d
	`, argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	var ranked []reputation.RankedTutor
	for rows.Next() {
		var tutorID, count int64
		if err := rows.Scan(&tutorID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		ranked = append(ranked, reputation.RankedTutor{
			TutorID:       shared.UserID(tutorID),
			AcceptedCount: count,
		})
	}

	return ranked, rows.Err()
}

// Ensure interface is implemented
var _ reputation.CounterStore = (*ReputationRepository)(nil)
