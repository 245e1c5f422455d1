package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotgate/internal/platform/logger"
	"ballotgate/internal/platform/middleware"
)

func TestServiceAndWorker_PersistEvents(t *testing.T) {
	log := logger.New()
	svc := NewService(8, log)
	store := NewMemoryStore()
	worker := NewWorker(store, nil, svc.Inbox(), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	svc.Emit(ctx, Event{IdentityID: "id-1", Action: ActionVoteCast, Outcome: OutcomeOK})
	svc.Emit(ctx, Event{IdentityID: "id-1", Action: ActionLogin, Outcome: OutcomeRejected, Reason: "invalid credentials"})

	require.Eventually(t, func() bool {
		events, err := store.ListByIdentity(context.Background(), "id-1")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.ListByIdentity(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, ActionVoteCast, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "Emit must stamp events")
	assert.Equal(t, OutcomeRejected, events[1].Outcome)
}

func TestService_EmitPicksUpDeviceFromContext(t *testing.T) {
	log := logger.New()
	svc := NewService(8, log)

	ctx := context.WithValue(context.Background(), middleware.ContextKeyDevice, "Firefox on Linux")
	svc.Emit(ctx, Event{IdentityID: "id-1", Action: ActionLogin, Outcome: OutcomeOK})
	svc.Emit(ctx, Event{IdentityID: "id-1", Action: ActionLogin, Outcome: OutcomeOK, Device: "CLI"})

	enriched := <-svc.Inbox()
	assert.Equal(t, "Firefox on Linux", enriched.Device)

	preset := <-svc.Inbox()
	assert.Equal(t, "CLI", preset.Device, "an explicit device must not be overwritten")
}

func TestService_EmitDropsWhenFull(t *testing.T) {
	log := logger.New()
	svc := NewService(1, log)

	// No worker draining: second emit must not block.
	svc.Emit(context.Background(), Event{IdentityID: "a", Action: ActionSignup, Outcome: OutcomeOK})
	doneCh := make(chan struct{})
	go func() {
		svc.Emit(context.Background(), Event{IdentityID: "b", Action: ActionSignup, Outcome: OutcomeOK})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}
