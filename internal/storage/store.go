package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	electionmodels "ballotgate/internal/election/models"
	identitymodels "ballotgate/internal/identity/models"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and postgres persistence without rewiring business code.

type IdentityStore interface {
	// Save inserts a new identity. A duplicate national id yields
	// sentinel.ErrConflict.
	Save(ctx context.Context, identity identitymodels.Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (identitymodels.Identity, error)
	FindByNationalID(ctx context.Context, nationalID string) (identitymodels.Identity, error)
	// UpdatePasswordHash replaces the stored hash for an existing identity.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type CandidateStore interface {
	Save(ctx context.Context, candidate electionmodels.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (electionmodels.Candidate, error)
	// List returns candidates in registration order.
	List(ctx context.Context) ([]electionmodels.Candidate, error)
	// Update changes name and party only; votes and ordering are untouched.
	Update(ctx context.Context, id uuid.UUID, name, party string) (electionmodels.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VoteLedger owns the one-voter-one-vote commit. RecordVote atomically flips
// the voter's hasVoted flag via a conditional update and appends the vote to
// the candidate, so two concurrent casts from one voter cannot both succeed
// and a failed cast leaves no partial state.
//
// Errors:
//   - sentinel.ErrAlreadyUsed: the conditional update found hasVoted already true
//   - ErrVoterNotFound / ErrCandidateNotFound: the named side of the binding
//     does not exist; both also match sentinel.ErrNotFound
type VoteLedger interface {
	RecordVote(ctx context.Context, voterID, candidateID uuid.UUID, at time.Time) error
}
