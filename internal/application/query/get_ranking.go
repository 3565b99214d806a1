package query

import (
	"context"
	"time"

	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RANKING QUERY
// Returns the tutor leaderboard ordered by reputation counter, with an
// optional subject/region pre-filter and pagination.
// ══════════════════════════════════════════════════════════════════════════════

// RankingCache is an optional read-through cache for the unfiltered board.
// A cache miss or failure falls back to the counter store.
type RankingCache interface {
	// GetTop returns the cached entries with the n highest counters, in
	// no particular order, possibly with extra entries tied at the
	// boundary. The caller applies the canonical sort.
	GetTop(ctx context.Context, n int) ([]reputation.RankedTutor, error)
}

// GetRankingQuery carries the ranking request.
type GetRankingQuery struct {
	// Filter - optional subject/region pre-filter.
	Filter reputation.RankingFilter

	// Page - result window.
	Page shared.Page
}

// Validate checks the query parameters.
func (q *GetRankingQuery) Validate() error {
	if err := q.Page.Validate(); err != nil {
		return shared.ErrInvalidRankingPage
	}
	q.Page = q.Page.Normalize()
	return nil
}

// RankingEntryDTO is one row of the leaderboard response.
type RankingEntryDTO struct {
	// Rank - 1-based position within the returned ordering.
	Rank int `json:"rank"`

	// TutorID - the tutor.
	TutorID int64 `json:"tutor_id"`

	// Reputation - accepted-answer counter value.
	Reputation int64 `json:"reputation"`
}

// GetRankingResult contains the leaderboard page.
type GetRankingResult struct {
	// Entries - the requested page, counter descending, tutor id ascending.
	Entries []RankingEntryDTO `json:"entries"`

	// GeneratedAt - when the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetRankingHandler serves leaderboard queries.
type GetRankingHandler struct {
	counters reputation.CounterStore
	cache    RankingCache
	log      *logger.Logger
}

// NewGetRankingHandler creates a new handler. cache may be nil.
func NewGetRankingHandler(counters reputation.CounterStore, cache RankingCache, log *logger.Logger) *GetRankingHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetRankingHandler{
		counters: counters,
		cache:    cache,
		log:      log.With(logger.Component("get_ranking")),
	}
}

// Handle executes the ranking query. Reads take no exclusive locks and may
// trail an in-flight accept by its commit latency, but they never observe
// a decrement.
func (h *GetRankingHandler) Handle(ctx context.Context, query GetRankingQuery) (*GetRankingResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.fetch(ctx, query)
	if err != nil {
		return nil, shared.WrapError("query", "GetRanking", shared.ErrStorage, "failed to read ranking", err)
	}

	dtos := make([]RankingEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = RankingEntryDTO{
			Rank:       query.Page.Offset + i + 1,
			TutorID:    e.TutorID.Int64(),
			Reputation: e.AcceptedCount,
		}
	}

	return &GetRankingResult{
		Entries:     dtos,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// fetch reads the page from the cache when possible, otherwise from the
// counter store. Only the unfiltered board is cached, and the cached board
// is served only when it covers the whole requested window: a shorter board
// cannot prove the missing ranks are absent from the store, so it falls
// back rather than truncate the page.
func (h *GetRankingHandler) fetch(ctx context.Context, query GetRankingQuery) ([]reputation.RankedTutor, error) {
	if h.cache != nil && query.Filter.IsEmpty() {
		needed := query.Page.Offset + query.Page.Limit
		cached, err := h.cache.GetTop(ctx, needed)
		switch {
		case err != nil:
			h.log.Warn("ranking cache read failed, falling back to store", logger.Err(err))
		case len(cached) >= needed:
			reputation.SortRanked(cached)
			from, to := query.Page.Slice(len(cached))
			return cached[from:to], nil
		}
	}

	return h.counters.RangeByDescendingValue(ctx, query.Filter, query.Page)
}
