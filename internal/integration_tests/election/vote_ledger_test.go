//go:build integration

package election

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	electionmodels "ballotgate/internal/election/models"
	identitymodels "ballotgate/internal/identity/models"
	"ballotgate/internal/storage"
	"ballotgate/pkg/platform/sentinel"
	"ballotgate/pkg/testutil/containers"
)

func setupStores(t *testing.T) (*storage.PostgresIdentityStore, *storage.PostgresCandidateStore, *storage.PostgresLedger) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, storage.CreateSchema(context.Background(), pg.Pool))
	return storage.NewPostgresIdentityStore(pg.Pool),
		storage.NewPostgresCandidateStore(pg.Pool),
		storage.NewPostgresLedger(pg.Pool)
}

func saveVoter(t *testing.T, store *storage.PostgresIdentityStore) identitymodels.Identity {
	t.Helper()
	identity := identitymodels.Identity{
		ID:           uuid.New(),
		Name:         "Integration Voter",
		Age:          30,
		Address:      "1 Main St",
		NationalID:   uuid.NewString(),
		PasswordHash: "irrelevant",
		Role:         identitymodels.RoleVoter,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.Save(context.Background(), identity))
	return identity
}

func saveCandidate(t *testing.T, store *storage.PostgresCandidateStore) electionmodels.Candidate {
	t.Helper()
	candidate := electionmodels.Candidate{
		ID:        uuid.New(),
		Name:      "Integration Candidate",
		Party:     "Unity",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Save(context.Background(), candidate))
	return candidate
}

func TestPostgresLedgerRecordVote(t *testing.T) {
	ctx := context.Background()
	identities, candidates, ledger := setupStores(t)
	voter := saveVoter(t, identities)
	candidate := saveCandidate(t, candidates)

	require.NoError(t, ledger.RecordVote(ctx, voter.ID, candidate.ID, time.Now()))

	stored, err := identities.FindByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasVoted)

	updated, err := candidates.FindByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.VoteCount)
	require.Len(t, updated.Votes, 1)
	assert.Equal(t, voter.ID, updated.Votes[0].VoterID)

	err = ledger.RecordVote(ctx, voter.ID, candidate.ID, time.Now())
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestPostgresLedgerUnknownCandidateLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	identities, candidates, ledger := setupStores(t)
	voter := saveVoter(t, identities)

	err := ledger.RecordVote(ctx, voter.ID, uuid.New(), time.Now())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	stored, err := identities.FindByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasVoted, "a failed cast must not consume the ballot")

	// The ballot is still usable against a real candidate.
	candidate := saveCandidate(t, candidates)
	assert.NoError(t, ledger.RecordVote(ctx, voter.ID, candidate.ID, time.Now()))
}

func TestPostgresLedgerConcurrentCastsOneVoter(t *testing.T) {
	ctx := context.Background()
	identities, candidates, ledger := setupStores(t)
	voter := saveVoter(t, identities)
	candidate := saveCandidate(t, candidates)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.RecordVote(ctx, voter.ID, candidate.ID, time.Now())
		}()
	}
	wg.Wait()
	close(errs)

	var accepted int
	for err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		}
	}
	assert.Equal(t, 1, accepted)

	updated, err := candidates.FindByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.VoteCount)
}

func TestPostgresLedgerDistinctVotersInterleave(t *testing.T) {
	ctx := context.Background()
	identities, candidates, ledger := setupStores(t)
	candidate := saveCandidate(t, candidates)

	const voters = 10
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for range voters {
		voter := saveVoter(t, identities)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.RecordVote(ctx, voter.ID, candidate.ID, time.Now())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	updated, err := candidates.FindByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, updated.VoteCount)
	assert.Len(t, updated.Votes, voters)
}
