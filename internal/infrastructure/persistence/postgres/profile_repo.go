// Package postgres implements the PostgreSQL persistence layer of the Tumae
// matching engine.
package postgres

import (
	"context"
	"fmt"

	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE DIRECTORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements matching.ProfileDirectory for PostgreSQL.
// Profiles are read-mostly: the engine consumes them for scoring but the
// profile service owns the writes.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// ListTutors returns the tutor population matching the filter, with subjects,
// availability windows, and the live reputation counter attached.
func (r *ProfileRepository) ListTutors(ctx context.Context, filter matching.DirectoryFilter) ([]matching.TutorProfile, error) {
	query := `
		SELECT tp.tutor_id, tp.region_id, tp.hourly_rate,
		       COALESCE(rr.accepted_count, 0)
		FROM tutor_profiles tp
		LEFT JOIN reputation_records rr ON rr.tutor_id = tp.tutor_id
	`

	args := []interface{}{}
	argIndex := 1

	if filter.Subject != 0 {
		query += fmt.Sprintf(`
		JOIN tutor_subjects fs ON fs.tutor_id = tp.tutor_id AND fs.subject_id = $%d`, argIndex)
		args = append(args, int64(filter.Subject))
		argIndex++
	}
	if !filter.Region.IsZero() {
		query += fmt.Sprintf(`
		WHERE tp.region_id = $%d`, argIndex)
		args = append(args, int64(filter.Region))
		argIndex++
	}

	query += `
		ORDER BY tp.tutor_id ASC
	`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tutors: %w", err)
	}
	defer rows.Close()

	var profiles []matching.TutorProfile
	index := make(map[shared.UserID]int)

	for rows.Next() {
		var tutorID, regionID, hourlyRate, reputationCount int64
		if err := rows.Scan(&tutorID, &regionID, &hourlyRate, &reputationCount); err != nil {
			return nil, fmt.Errorf("failed to scan tutor profile: %w", err)
		}
		profiles = append(profiles, matching.TutorProfile{
			TutorID:    shared.UserID(tutorID),
			Region:     shared.RegionID(regionID),
			HourlyRate: hourlyRate,
			Reputation: reputationCount,
		})
		index[shared.UserID(tutorID)] = len(profiles) - 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(profiles) == 0 {
		return []matching.TutorProfile{}, nil
	}

	if err := r.attachSubjects(ctx, profiles, index); err != nil {
		return nil, err
	}
	if err := r.attachAvailability(ctx, profiles, index); err != nil {
		return nil, err
	}

	return profiles, nil
}

// GetTutor returns a single tutor profile.
func (r *ProfileRepository) GetTutor(ctx context.Context, tutorID shared.UserID) (*matching.TutorProfile, error) {
	var id, regionID, hourlyRate, reputationCount int64

	err := r.conn.QueryRow(ctx, `
		SELECT tp.tutor_id, tp.region_id, tp.hourly_rate,
		       COALESCE(rr.accepted_count, 0)
		FROM tutor_profiles tp
		LEFT JOIN reputation_records rr ON rr.tutor_id = tp.tutor_id
		WHERE tp.tutor_id = $1
	`, tutorID.Int64()).Scan(&id, &regionID, &hourlyRate, &reputationCount)

	if IsNoRows(err) {
		return nil, shared.ErrTutorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor profile: %w", err)
	}

	profiles := []matching.TutorProfile{{
		TutorID:    shared.UserID(id),
		Region:     shared.RegionID(regionID),
		HourlyRate: hourlyRate,
		Reputation: reputationCount,
	}}
	index := map[shared.UserID]int{shared.UserID(id): 0}

	if err := r.attachSubjects(ctx, profiles, index); err != nil {
		return nil, err
	}
	if err := r.attachAvailability(ctx, profiles, index); err != nil {
		return nil, err
	}

	return &profiles[0], nil
}

// ─────────────────────────────────────────────────────────────────────────────
// HELPERS
// ─────────────────────────────────────────────────────────────────────────────

// attachSubjects loads the subject lists for the given profiles.
func (r *ProfileRepository) attachSubjects(ctx context.Context, profiles []matching.TutorProfile, index map[shared.UserID]int) error {
	ids := tutorIDs(profiles)

	rows, err := r.conn.Query(ctx, `
		SELECT tutor_id, subject_id
		FROM tutor_subjects
		WHERE tutor_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query tutor subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tutorID, subjectID int64
		if err := rows.Scan(&tutorID, &subjectID); err != nil {
			return fmt.Errorf("failed to scan tutor subject: %w", err)
		}
		if i, ok := index[shared.UserID(tutorID)]; ok {
			profiles[i].Subjects = append(profiles[i].Subjects, shared.SubjectID(subjectID))
		}
	}

	return rows.Err()
}

// attachAvailability loads the weekly windows for the given profiles.
func (r *ProfileRepository) attachAvailability(ctx context.Context, profiles []matching.TutorProfile, index map[shared.UserID]int) error {
	ids := tutorIDs(profiles)

	rows, err := r.conn.Query(ctx, `
		SELECT tutor_id, weekday, start_minute, end_minute
		FROM tutor_availabilities
		WHERE tutor_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query tutor availabilities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tutorID int64
		var weekday, start, end int
		if err := rows.Scan(&tutorID, &weekday, &start, &end); err != nil {
			return fmt.Errorf("failed to scan tutor availability: %w", err)
		}
		if i, ok := index[shared.UserID(tutorID)]; ok {
			profiles[i].Availability = append(profiles[i].Availability, matching.Window{
				Day:   matching.Weekday(weekday),
				Start: start,
				End:   end,
			})
		}
	}

	return rows.Err()
}

// tutorIDs collects the profile ids for ANY($1) queries.
func tutorIDs(profiles []matching.TutorProfile) []int64 {
	ids := make([]int64, len(profiles))
	for i, p := range profiles {
		ids[i] = p.TutorID.Int64()
	}
	return ids
}

// Ensure interface is implemented
var _ matching.ProfileDirectory = (*ProfileRepository)(nil)
