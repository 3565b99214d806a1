package scheduler

import (
	"context"
	"fmt"

	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING REBUILD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RankingRebuilder replaces the cached board with authoritative entries.
type RankingRebuilder interface {
	Rebuild(ctx context.Context, entries []reputation.RankedTutor) error
}

// EventPublisher publishes domain events after a successful rebuild.
type EventPublisher interface {
	Publish(event shared.Event) error
}

// RebuildRankingJob reloads the full reputation board from the counter store
// and replaces the cached copy. Counters are monotonic, so a rebuild racing
// an incremental update can only briefly understate a tutor, never corrupt
// the order beyond the next event.
type RebuildRankingJob struct {
	counters reputation.CounterStore
	cache    RankingRebuilder
	bus      EventPublisher

	// maxTutors bounds the cached board size.
	maxTutors int
}

// NewRebuildRankingJob creates the job. bus may be nil.
func NewRebuildRankingJob(counters reputation.CounterStore, cache RankingRebuilder, bus EventPublisher) *RebuildRankingJob {
	return &RebuildRankingJob{
		counters:  counters,
		cache:     cache,
		bus:       bus,
		maxTutors: 10000,
	}
}

// Name implements Job.
func (j *RebuildRankingJob) Name() string {
	return "rebuild_ranking"
}

// Run implements Job.
func (j *RebuildRankingJob) Run(ctx context.Context) error {
	entries, err := j.loadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ranking: %w", err)
	}

	if err := j.cache.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild ranking cache: %w", err)
	}

	if j.bus != nil {
		_ = j.bus.Publish(shared.NewRankingRefreshedEvent(len(entries)))
	}

	return nil
}

// loadAll pages through the counter store up to the board size limit.
func (j *RebuildRankingJob) loadAll(ctx context.Context) ([]reputation.RankedTutor, error) {
	var entries []reputation.RankedTutor

	for offset := 0; offset < j.maxTutors; offset += shared.MaxPageSize {
		page, err := j.counters.RangeByDescendingValue(ctx, reputation.RankingFilter{}, shared.Page{
			Offset: offset,
			Limit:  shared.MaxPageSize,
		})
		if err != nil {
			return nil, err
		}

		entries = append(entries, page...)
		if len(page) < shared.MaxPageSize {
			break
		}
	}

	return entries, nil
}

var _ Job = (*RebuildRankingJob)(nil)
