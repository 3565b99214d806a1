// Package memory implements the storage contracts on plain in-process maps.
// It backs development mode (no DATABASE_URL configured) and the test suite.
// A single mutex serializes writes; the dataset is small enough in both
// settings that finer locking buys nothing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// Store holds all engine state in memory. It implements
// community.AcceptanceStore, reputation.CounterStore, and
// matching.ProfileDirectory so development mode runs against one object.
type Store struct {
	mu        sync.RWMutex
	questions map[shared.QuestionID]*community.Question
	answers   map[shared.AnswerID]*community.Answer
	counters  map[shared.UserID]*reputation.Record
	profiles  map[shared.UserID]matching.TutorProfile
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		questions: make(map[shared.QuestionID]*community.Question),
		answers:   make(map[shared.AnswerID]*community.Answer),
		counters:  make(map[shared.UserID]*reputation.Record),
		profiles:  make(map[shared.UserID]matching.TutorProfile),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SEEDING
// ══════════════════════════════════════════════════════════════════════════════

// PutQuestion stores or replaces a question.
func (s *Store) PutQuestion(q *community.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q.Clone()
}

// PutAnswer stores or replaces an answer.
func (s *Store) PutAnswer(a *community.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[a.ID] = a.Clone()
}

// PutTutor stores or replaces a tutor profile. The profile's Reputation
// field is ignored; reads always join the live counter.
func (s *Store) PutTutor(p matching.TutorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.TutorID] = p
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPTANCE STORE
// ══════════════════════════════════════════════════════════════════════════════

// GetQuestion returns a copy of the question.
func (s *Store) GetQuestion(ctx context.Context, id shared.QuestionID) (*community.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, shared.ErrQuestionNotFound
	}
	return q.Clone(), nil
}

// GetAnswer returns a copy of the answer.
func (s *Store) GetAnswer(ctx context.Context, id shared.AnswerID) (*community.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.answers[id]
	if !ok {
		return nil, shared.ErrAnswerNotFound
	}
	return a.Clone(), nil
}

// CommitAcceptance applies the accept under the store mutex, which gives the
// same all-or-nothing visibility as the SQL transaction: the version check,
// the state flip, the answer flag, and the counter increment happen as one
// critical section.
func (s *Store) CommitAcceptance(ctx context.Context, questionID shared.QuestionID, version int64, answerID shared.AnswerID, tutorID shared.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[questionID]
	if !ok {
		return 0, shared.ErrQuestionNotFound
	}
	if !q.IsOpen() || q.Version != version {
		return 0, shared.ErrVersionMismatch
	}

	a, ok := s.answers[answerID]
	if !ok {
		return 0, shared.ErrAnswerNotFound
	}

	if err := q.MarkAccepted(answerID); err != nil {
		return 0, err
	}
	a.Accepted = true

	return s.incrementLocked(tutorID, 1), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTER STORE
// ══════════════════════════════════════════════════════════════════════════════

// Increment adds delta to the tutor's counter, creating the record on first use.
func (s *Store) Increment(ctx context.Context, tutorID shared.UserID, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, shared.ErrNonPositiveDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(tutorID, delta), nil
}

func (s *Store) incrementLocked(tutorID shared.UserID, delta int64) int64 {
	rec, ok := s.counters[tutorID]
	if !ok {
		rec = &reputation.Record{TutorID: tutorID}
		s.counters[tutorID] = rec
	}
	rec.AcceptedCount += delta
	rec.UpdatedAt = time.Now().UTC()
	return rec.AcceptedCount
}

// Get returns the tutor's counter value, 0 when no record exists.
func (s *Store) Get(ctx context.Context, tutorID shared.UserID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.counters[tutorID]
	if !ok {
		return 0, nil
	}
	return rec.AcceptedCount, nil
}

// RangeByDescendingValue returns the ranking page, optionally filtered by the
// tutor's profile subject and region. Tutors without a profile only appear
// on the unfiltered board.
func (s *Store) RangeByDescendingValue(ctx context.Context, filter reputation.RankingFilter, page shared.Page) ([]reputation.RankedTutor, error) {
	s.mu.RLock()
	ranked := make([]reputation.RankedTutor, 0, len(s.counters))
	for id, rec := range s.counters {
		if !filter.IsEmpty() && !s.profileMatchesLocked(id, filter) {
			continue
		}
		ranked = append(ranked, reputation.RankedTutor{TutorID: id, AcceptedCount: rec.AcceptedCount})
	}
	s.mu.RUnlock()

	reputation.SortRanked(ranked)
	from, to := page.Slice(len(ranked))
	return ranked[from:to], nil
}

func (s *Store) profileMatchesLocked(id shared.UserID, filter reputation.RankingFilter) bool {
	p, ok := s.profiles[id]
	if !ok {
		return false
	}
	if filter.Subject != 0 && !p.Offers(filter.Subject) {
		return false
	}
	if !filter.Region.IsZero() && p.Region != filter.Region {
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// ListTutors returns profiles matching the filter, each carrying the live
// counter value in Reputation.
func (s *Store) ListTutors(ctx context.Context, filter matching.DirectoryFilter) ([]matching.TutorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]matching.TutorProfile, 0, len(s.profiles))
	for id, p := range s.profiles {
		if filter.Subject != 0 && !p.Offers(filter.Subject) {
			continue
		}
		if !filter.Region.IsZero() && p.Region != filter.Region {
			continue
		}
		p.Reputation = 0
		if rec, ok := s.counters[id]; ok {
			p.Reputation = rec.AcceptedCount
		}
		result = append(result, p)
	}
	return result, nil
}

// GetTutor returns a single profile with the live counter value.
func (s *Store) GetTutor(ctx context.Context, tutorID shared.UserID) (*matching.TutorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[tutorID]
	if !ok {
		return nil, shared.ErrTutorNotFound
	}
	p.Reputation = 0
	if rec, ok := s.counters[tutorID]; ok {
		p.Reputation = rec.AcceptedCount
	}
	return &p, nil
}

// Interface conformance.
var (
	_ community.AcceptanceStore = (*Store)(nil)
	_ reputation.CounterStore   = (*Store)(nil)
	_ matching.ProfileDirectory = (*Store)(nil)
)
