package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/persistence/memory"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *recordingBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) Events() []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]shared.Event(nil), b.events...)
}

func seedAcceptScenario(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.NewStore()

	q, err := community.NewQuestion(100, 1)
	require.NoError(t, err)
	store.PutQuestion(q)

	a, err := community.NewAnswer(200, 100, 2)
	require.NoError(t, err)
	store.PutAnswer(a)

	return store
}

func acceptCmd() AcceptAnswerCommand {
	return AcceptAnswerCommand{QuestionID: 100, AnswerID: 200, CallerID: 1}
}

func TestAcceptAnswer_HappyPath(t *testing.T) {
	store := seedAcceptScenario(t)
	bus := &recordingBus{}
	handler := NewAcceptAnswerHandler(store, bus, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, acceptCmd())
	require.NoError(t, err)

	assert.EqualValues(t, 100, result.QuestionID)
	assert.EqualValues(t, 200, result.AnswerID)
	assert.EqualValues(t, 2, result.TutorID)
	assert.EqualValues(t, 1, result.NewReputation)

	q, err := store.GetQuestion(ctx, 100)
	require.NoError(t, err)
	assert.True(t, q.IsAccepted())
	assert.EqualValues(t, 200, q.AcceptedAnswerID)

	count, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	events := bus.Events()
	require.Len(t, events, 1)
	accepted, ok := events[0].(shared.AnswerAcceptedEvent)
	require.True(t, ok)
	assert.Equal(t, shared.EventAnswerAccepted, accepted.EventType())
	assert.EqualValues(t, 100, accepted.QuestionID)
	assert.EqualValues(t, 200, accepted.AnswerID)
	assert.EqualValues(t, 1, accepted.OwnerID)
	assert.EqualValues(t, 2, accepted.TutorID)
	assert.EqualValues(t, 1, accepted.NewReputation)
}

func TestAcceptAnswer_NilBusIsAllowed(t *testing.T) {
	store := seedAcceptScenario(t)
	handler := NewAcceptAnswerHandler(store, nil, nil)

	_, err := handler.Handle(context.Background(), acceptCmd())
	assert.NoError(t, err)
}

func TestAcceptAnswer_ReacceptConflicts(t *testing.T) {
	store := seedAcceptScenario(t)
	bus := &recordingBus{}
	handler := NewAcceptAnswerHandler(store, bus, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, acceptCmd())
	require.NoError(t, err)

	// Accepting again with the same answer conflicts: no silent no-op.
	_, err = handler.Handle(ctx, acceptCmd())
	assert.ErrorIs(t, err, shared.ErrQuestionAccepted)
	assert.True(t, shared.IsConflict(err))

	// And the counter did not move a second time.
	count, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Len(t, bus.Events(), 1)
}

func TestAcceptAnswer_DifferentAnswerAfterAcceptConflicts(t *testing.T) {
	store := seedAcceptScenario(t)
	other, err := community.NewAnswer(201, 100, 3)
	require.NoError(t, err)
	store.PutAnswer(other)

	handler := NewAcceptAnswerHandler(store, nil, nil)
	ctx := context.Background()

	_, err = handler.Handle(ctx, acceptCmd())
	require.NoError(t, err)

	cmd := acceptCmd()
	cmd.AnswerID = 201
	_, err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrQuestionAccepted)
}

func TestAcceptAnswer_NotOwner(t *testing.T) {
	store := seedAcceptScenario(t)
	handler := NewAcceptAnswerHandler(store, nil, nil)

	cmd := acceptCmd()
	cmd.CallerID = 99
	_, err := handler.Handle(context.Background(), cmd)

	assert.ErrorIs(t, err, shared.ErrNotQuestionOwner)
	assert.True(t, shared.IsForbidden(err))
}

func TestAcceptAnswer_NotFound(t *testing.T) {
	store := seedAcceptScenario(t)
	handler := NewAcceptAnswerHandler(store, nil, nil)
	ctx := context.Background()

	cmd := acceptCmd()
	cmd.QuestionID = 999
	_, err := handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrQuestionNotFound)
	assert.True(t, shared.IsNotFound(err))

	cmd = acceptCmd()
	cmd.AnswerID = 999
	_, err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrAnswerNotFound)
}

func TestAcceptAnswer_AnswerFromAnotherQuestion(t *testing.T) {
	store := seedAcceptScenario(t)

	q2, err := community.NewQuestion(101, 1)
	require.NoError(t, err)
	store.PutQuestion(q2)
	foreign, err := community.NewAnswer(201, 101, 3)
	require.NoError(t, err)
	store.PutAnswer(foreign)

	handler := NewAcceptAnswerHandler(store, nil, nil)

	cmd := acceptCmd()
	cmd.AnswerID = 201
	_, err = handler.Handle(context.Background(), cmd)

	assert.ErrorIs(t, err, shared.ErrAnswerMismatch)
	assert.True(t, shared.IsValidation(err))
}

func TestAcceptAnswerCommand_Validate(t *testing.T) {
	assert.NoError(t, acceptCmd().Validate())

	cases := []AcceptAnswerCommand{
		{QuestionID: 0, AnswerID: 200, CallerID: 1},
		{QuestionID: 100, AnswerID: 0, CallerID: 1},
		{QuestionID: 100, AnswerID: 200, CallerID: 0},
		{QuestionID: -1, AnswerID: 200, CallerID: 1},
	}
	for _, cmd := range cases {
		err := cmd.Validate()
		assert.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestAcceptAnswer_InvalidCommandSkipsStorage(t *testing.T) {
	handler := NewAcceptAnswerHandler(nil, nil, nil)

	_, err := handler.Handle(context.Background(), AcceptAnswerCommand{})
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestAcceptAnswer_ConcurrentSameQuestion(t *testing.T) {
	store := seedAcceptScenario(t)
	bus := &recordingBus{}
	handler := NewAcceptAnswerHandler(store, bus, nil)
	ctx := context.Background()

	const attempts = 16

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = handler.Handle(ctx, acceptCmd())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			// Losers see the conflict, never a raw version mismatch.
			assert.ErrorIs(t, err, shared.ErrQuestionAccepted)
			assert.NotErrorIs(t, err, shared.ErrVersionMismatch)
		}
	}
	assert.Equal(t, 1, wins, "exactly one accept must win")

	count, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Len(t, bus.Events(), 1)
}

func TestAcceptAnswer_ConcurrentDifferentQuestionsSameTutor(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	const n = 10
	for i := int64(1); i <= n; i++ {
		q, err := community.NewQuestion(shared.QuestionID(i), shared.UserID(i+100))
		require.NoError(t, err)
		store.PutQuestion(q)

		a, err := community.NewAnswer(shared.AnswerID(i), q.ID, 2)
		require.NoError(t, err)
		store.PutAnswer(a)
	}

	handler := NewAcceptAnswerHandler(store, nil, nil)

	var wg sync.WaitGroup
	for i := int64(1); i <= n; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			_, err := handler.Handle(ctx, AcceptAnswerCommand{
				QuestionID: shared.QuestionID(i),
				AnswerID:   shared.AnswerID(i),
				CallerID:   shared.UserID(i + 100),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Accepts on independent questions never block each other; the tutor's
	// counter collects them all.
	count, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
}
