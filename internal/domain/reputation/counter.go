// Package reputation contains the per-tutor reputation counter of the Tumae
// matching engine. A tutor's reputation is the number of their answers that
// question owners have accepted. The counter is monotonically non-decreasing:
// nothing in this engine ever decrements it.
//
// The original marketplace kept an accepted count as a denormalized column
// updated by ad-hoc writes; here the counter is an explicit entity with a
// single atomic-increment entry point, so the counter and the acceptance
// state cannot drift apart.
package reputation

import (
	"context"
	"sort"
	"time"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPUTATION RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is a tutor's reputation counter.
type Record struct {
	// TutorID - the tutor this counter belongs to.
	TutorID shared.UserID

	// AcceptedCount - number of accepted answers. Never negative.
	AcceptedCount int64

	// UpdatedAt - when the counter was last incremented.
	UpdatedAt time.Time
}

// IsValid checks the record invariants.
func (r Record) IsValid() bool {
	return r.TutorID.IsValid() && r.AcceptedCount >= 0
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING TYPES
// ══════════════════════════════════════════════════════════════════════════════

// RankingFilter narrows the tutor population before ranking.
// Zero values mean "no filter on this dimension".
type RankingFilter struct {
	// Subject - only tutors offering this subject.
	Subject shared.SubjectID

	// Region - only tutors in this region.
	Region shared.RegionID
}

// IsEmpty reports whether no filter dimension is set.
func (f RankingFilter) IsEmpty() bool {
	return f.Subject == 0 && f.Region.IsZero()
}

// RankedTutor is one row of a reputation leaderboard.
type RankedTutor struct {
	// TutorID - the tutor.
	TutorID shared.UserID

	// AcceptedCount - the reputation counter value at read time.
	AcceptedCount int64
}

// SortRanked orders entries by counter descending, then tutor id ascending.
// The total order is deterministic so repeated reads over unchanged data
// return identical sequences.
func SortRanked(entries []RankedTutor) {
	sort.Slice(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// Less is the ranking comparator: counter descending, tutor id ascending.
func Less(a, b RankedTutor) bool {
	if a.AcceptedCount != b.AcceptedCount {
		return a.AcceptedCount > b.AcceptedCount
	}
	return a.TutorID < b.TutorID
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTER STORE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// CounterStore is the persistence contract for reputation counters.
// Implementations live in the infrastructure layer (PostgreSQL, in-memory).
//
// Increment must be linearizable per tutor id: concurrent increments for
// the same tutor never lose updates. Increments for different tutors are
// independent and never block each other.
type CounterStore interface {
	// Increment adds delta to the tutor's counter and returns the new value.
	// The record is created on first increment.
	Increment(ctx context.Context, tutorID shared.UserID, delta int64) (int64, error)

	// Get returns the tutor's current counter value.
	// A tutor with no record yet has value 0; absence is not an error.
	Get(ctx context.Context, tutorID shared.UserID) (int64, error)

	// RangeByDescendingValue returns tutors ordered by counter value
	// descending, tutor id ascending, windowed by page. The filter is
	// resolved against the profile directory's population.
	RangeByDescendingValue(ctx context.Context, filter RankingFilter, page shared.Page) ([]RankedTutor, error)
}
