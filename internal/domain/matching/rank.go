package matching

import (
	"sort"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RESULT RANKING
// ══════════════════════════════════════════════════════════════════════════════

// MatchResult is one scored candidate. Transient output only, never persisted.
type MatchResult struct {
	// TutorID - the candidate tutor.
	TutorID shared.UserID

	// Score - similarity in [0, 1].
	Score float64

	// Reputation - the tutor's counter value, used as the first tie-break.
	Reputation int64
}

// MatchResultList is an ordered list of scored candidates.
type MatchResultList []MatchResult

// Sort applies the canonical total order: score descending, reputation
// descending, tutor id ascending. Ties without the id key would make the
// order unstable across runs, which callers and tests rely on.
func (m MatchResultList) Sort() {
	sort.Slice(m, func(i, j int) bool {
		if m[i].Score != m[j].Score {
			return m[i].Score > m[j].Score
		}
		if m[i].Reputation != m[j].Reputation {
			return m[i].Reputation > m[j].Reputation
		}
		return m[i].TutorID < m[j].TutorID
	})
}

// Page returns the window [offset, offset+limit) of the list.
func (m MatchResultList) Page(page shared.Page) MatchResultList {
	from, to := page.Slice(len(m))
	return m[from:to]
}

// HardFilterBySubject drops candidates that do not offer the subject.
// Subject is a mandatory filter, not merely a scored dimension: gross
// mismatches are removed before any score computation is spent on them.
func HardFilterBySubject(candidates []TutorProfile, subject shared.SubjectID) []TutorProfile {
	filtered := make([]TutorProfile, 0, len(candidates))
	for _, c := range candidates {
		if c.Offers(subject) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
