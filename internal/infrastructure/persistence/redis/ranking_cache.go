// Package redis implements Redis-backed read acceleration for the Tumae
// matching engine.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrInvalidCount is returned when a non-positive count is requested.
var ErrInvalidCount = errors.New("ranking_cache: count must be positive")

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
// ══════════════════════════════════════════════════════════════════════════════

// RankingCache caches the unfiltered reputation leaderboard in a Redis
// Sorted Set: member = tutor id, score = accepted count.
//
// The set is kept warm two ways: ApplyAccepted bumps a single member when
// an answer-accepted event arrives, and Rebuild replaces the whole set from
// the counter store. Scores only ever grow, so a lost event leaves a member
// merely stale, never wrong-ordered relative to its true value.
//
// Ties are NOT resolved here: Redis orders equal scores lexicographically by
// member, which is not the engine's tutor-id-ascending rule. Readers apply
// the canonical sort after fetching.
type RankingCache struct {
	cache *Cache
}

// keyRanking is the sorted set holding tutor id -> accepted count.
const keyRanking = PrefixRanking + "reputation"

// NewRankingCache creates a new RankingCache instance.
func NewRankingCache(cache *Cache) *RankingCache {
	return &RankingCache{cache: cache}
}

// ─────────────────────────────────────────────────────────────────────────────
// WRITE OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// ApplyAccepted records a tutor's new counter value after an acceptance.
// ZADD GT keeps the larger score when events arrive out of order.
func (r *RankingCache) ApplyAccepted(ctx context.Context, tutorID shared.UserID, newCount int64) error {
	pipe := r.cache.Client().Pipeline()

	pipe.ZAddGT(ctx, keyRanking, redis.Z{
		Score:  float64(newCount),
		Member: tutorID.String(),
	})
	pipe.Expire(ctx, keyRanking, TTLRankingCache)

	_, err := pipe.Exec(ctx)
	return err
}

// Rebuild replaces the whole cached board with the given entries.
func (r *RankingCache) Rebuild(ctx context.Context, entries []reputation.RankedTutor) error {
	pipe := r.cache.Client().TxPipeline()

	pipe.Del(ctx, keyRanking)

	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{
				Score:  float64(e.AcceptedCount),
				Member: e.TutorID.String(),
			})
		}
		pipe.ZAdd(ctx, keyRanking, members...)
		pipe.Expire(ctx, keyRanking, TTLRankingCache)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// READ OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// GetTop returns the entries with the n highest counters. When counters tie
// at the boundary every tied member is included, so the result may hold more
// than n entries. The slice is not in canonical order; callers sort it with
// reputation.SortRanked. This is an O(log N + M) operation.
func (r *RankingCache) GetTop(ctx context.Context, n int) ([]reputation.RankedTutor, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}

	zs, err := r.cache.Client().ZRevRangeWithScores(ctx, keyRanking, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	// A full window may have split a group of equal counters at the cut:
	// Redis breaks score ties lexicographically by member, which is not the
	// engine's tutor-id ordering. Fetch every member at the boundary score
	// and let the caller's canonical sort decide who makes the page.
	if len(zs) == n {
		boundary := strconv.FormatFloat(zs[len(zs)-1].Score, 'f', -1, 64)
		tied, err := r.cache.Client().ZRangeByScoreWithScores(ctx, keyRanking, &redis.ZRangeBy{
			Min: boundary,
			Max: boundary,
		}).Result()
		if err != nil {
			return nil, err
		}

		seen := make(map[string]bool, len(zs))
		for _, z := range zs {
			if member, ok := z.Member.(string); ok {
				seen[member] = true
			}
		}
		for _, z := range tied {
			if member, ok := z.Member.(string); ok && !seen[member] {
				zs = append(zs, z)
			}
		}
	}

	entries := make([]reputation.RankedTutor, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ranking_cache: bad member %q: %w", member, err)
		}
		entries = append(entries, reputation.RankedTutor{
			TutorID:       shared.UserID(id),
			AcceptedCount: int64(z.Score),
		})
	}

	return entries, nil
}
