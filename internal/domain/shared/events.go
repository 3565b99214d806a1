// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event records something significant that
// happened in the engine and drives cache refreshes and audit logging.
const (
	// Community events
	EventAnswerAccepted EventType = "community.answer_accepted"

	// Reputation events
	EventReputationIncremented EventType = "reputation.incremented"
	EventRankingRefreshed      EventType = "reputation.ranking_refreshed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event. Handlers must be safe for
// concurrent use; the bus may invoke them from multiple goroutines.
type EventHandler func(ctx context.Context, event Event) error

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Community Events
// ═══════════════════════════════════════════════════════════════════════════

// AnswerAcceptedEvent is emitted when a question owner accepts an answer.
// NewReputation carries the tutor's counter value after the increment, so
// subscribers can refresh ranking views without a round trip to storage.
type AnswerAcceptedEvent struct {
	BaseEvent
	QuestionID    int64 `json:"question_id"`
	AnswerID      int64 `json:"answer_id"`
	OwnerID       int64 `json:"owner_id"`
	TutorID       int64 `json:"tutor_id"`
	NewReputation int64 `json:"new_reputation"`
}

// Payload implements Event interface.
func (e AnswerAcceptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"question_id":    e.QuestionID,
		"answer_id":      e.AnswerID,
		"owner_id":       e.OwnerID,
		"tutor_id":       e.TutorID,
		"new_reputation": e.NewReputation,
	}
}

// NewAnswerAcceptedEvent creates a new AnswerAcceptedEvent.
func NewAnswerAcceptedEvent(questionID QuestionID, answerID AnswerID, ownerID, tutorID UserID, newReputation int64) AnswerAcceptedEvent {
	return AnswerAcceptedEvent{
		BaseEvent:     NewBaseEvent(EventAnswerAccepted, questionID.String()),
		QuestionID:    questionID.Int64(),
		AnswerID:      answerID.Int64(),
		OwnerID:       ownerID.Int64(),
		TutorID:       tutorID.Int64(),
		NewReputation: newReputation,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reputation Events
// ═══════════════════════════════════════════════════════════════════════════

// RankingRefreshedEvent is emitted after the ranking cache is rebuilt.
type RankingRefreshedEvent struct {
	BaseEvent
	TutorCount int `json:"tutor_count"`
}

// Payload implements Event interface.
func (e RankingRefreshedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tutor_count": e.TutorCount,
	}
}

// NewRankingRefreshedEvent creates a new RankingRefreshedEvent.
func NewRankingRefreshedEvent(tutorCount int) RankingRefreshedEvent {
	return RankingRefreshedEvent{
		BaseEvent:  NewBaseEvent(EventRankingRefreshed, "ranking"),
		TutorCount: tutorCount,
	}
}
