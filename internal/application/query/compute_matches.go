// Package query contains read operations following the CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE MATCHES QUERY
// Ranks the tutor population against a student's criteria:
// hard subject filter -> scoring -> deterministic sort -> pagination.
// ══════════════════════════════════════════════════════════════════════════════

// ComputeMatchesQuery carries the match request.
type ComputeMatchesQuery struct {
	// Criteria - the student's stated preferences.
	Criteria matching.StudentCriteria

	// Page - result window.
	Page shared.Page
}

// Validate checks the query parameters.
func (q *ComputeMatchesQuery) Validate() error {
	if err := q.Criteria.Validate(); err != nil {
		return err
	}
	if err := q.Page.Validate(); err != nil {
		return err
	}
	q.Page = q.Page.Normalize()
	return nil
}

// MatchDTO is one ranked candidate in the response.
type MatchDTO struct {
	// TutorID - the candidate tutor.
	TutorID int64 `json:"tutor_id"`

	// Score - similarity in [0, 1].
	Score float64 `json:"score"`

	// Reputation - the tutor's accepted-answer counter at read time.
	Reputation int64 `json:"reputation"`
}

// ComputeMatchesResult contains the ranked page.
type ComputeMatchesResult struct {
	// Matches - the ranked candidates for the requested page.
	Matches []MatchDTO `json:"matches"`

	// TotalCandidates - candidates that passed the hard filter.
	TotalCandidates int `json:"total_candidates"`

	// GeneratedAt - when the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// ComputeMatchesHandler serves match queries.
type ComputeMatchesHandler struct {
	directory matching.ProfileDirectory
	log       *logger.Logger
}

// NewComputeMatchesHandler creates a new handler.
func NewComputeMatchesHandler(directory matching.ProfileDirectory, log *logger.Logger) *ComputeMatchesHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ComputeMatchesHandler{
		directory: directory,
		log:       log.With(logger.Component("compute_matches")),
	}
}

// Handle executes the match query. An empty candidate pool yields an empty
// page, not an error.
func (h *ComputeMatchesHandler) Handle(ctx context.Context, query ComputeMatchesQuery) (*ComputeMatchesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	candidates, err := h.directory.ListTutors(ctx, matching.DirectoryFilter{Subject: query.Criteria.Subject})
	if err != nil {
		return nil, shared.WrapError("query", "ComputeMatches", shared.ErrStorage, "failed to list tutors", err)
	}

	// The directory already filters by subject, but the rule is the
	// engine's, not the directory's: enforce it here regardless.
	candidates = matching.HardFilterBySubject(candidates, query.Criteria.Subject)

	results := scoreCandidates(query.Criteria, candidates)
	results.Sort()

	page := results.Page(query.Page)
	matches := make([]MatchDTO, len(page))
	for i, r := range page {
		matches[i] = MatchDTO{
			TutorID:    r.TutorID.Int64(),
			Score:      r.Score,
			Reputation: r.Reputation,
		}
	}

	return &ComputeMatchesResult{
		Matches:         matches,
		TotalCandidates: len(results),
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// scoreCandidates scores the candidate set in parallel. The scorer is pure,
// so candidates carry no ordering dependency until the final sort.
func scoreCandidates(criteria matching.StudentCriteria, candidates []matching.TutorProfile) matching.MatchResultList {
	results := make(matching.MatchResultList, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				profile := candidates[i]
				results[i] = matching.MatchResult{
					TutorID:    profile.TutorID,
					Score:      matching.Score(criteria, profile),
					Reputation: profile.Reputation,
				}
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
