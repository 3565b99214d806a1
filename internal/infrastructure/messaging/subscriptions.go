package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING SUBSCRIPTION
// ══════════════════════════════════════════════════════════════════════════════

// RankingApplier receives counter updates after an answer is accepted.
// The Redis ranking cache implements this; the subscription keeps the cached
// board warm without putting the cache on the accept path.
type RankingApplier interface {
	ApplyAccepted(ctx context.Context, tutorID shared.UserID, newCount int64) error
}

// SubscribeRankingUpdates wires answer-accepted events into the ranking cache.
// Failures are logged and swallowed: the cached board self-heals on the next
// event or rebuild, and readers fall back to the counter store anyway.
func SubscribeRankingUpdates(bus *InMemoryEventBus, applier RankingApplier, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	return bus.Subscribe(shared.EventAnswerAccepted, func(ctx context.Context, event shared.Event) error {
		accepted, ok := event.(shared.AnswerAcceptedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}

		if err := applier.ApplyAccepted(ctx, shared.UserID(accepted.TutorID), accepted.NewReputation); err != nil {
			logger.Warn("ranking cache update failed",
				"tutor_id", accepted.TutorID,
				"new_reputation", accepted.NewReputation,
				"error", err,
			)
		}
		return nil
	})
}
