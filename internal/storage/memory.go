package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	electionmodels "ballotgate/internal/election/models"
	identitymodels "ballotgate/internal/identity/models"
)

// In-memory stores keep the default deployment dependency-free and the tests
// fast. They intentionally favor clarity over performance.
type MemoryIdentityStore struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]identitymodels.Identity
	byNational map[string]uuid.UUID
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		identities: make(map[uuid.UUID]identitymodels.Identity),
		byNational: make(map[string]uuid.UUID),
	}
}

func (s *MemoryIdentityStore) Save(_ context.Context, identity identitymodels.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNational[identity.NationalID]; exists {
		return ErrConflict
	}
	s.identities[identity.ID] = identity
	s.byNational[identity.NationalID] = identity.ID
	return nil
}

func (s *MemoryIdentityStore) FindByID(_ context.Context, id uuid.UUID) (identitymodels.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.identities[id]; ok {
		return identity, nil
	}
	return identitymodels.Identity{}, ErrNotFound
}

func (s *MemoryIdentityStore) FindByNationalID(_ context.Context, nationalID string) (identitymodels.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byNational[nationalID]; ok {
		return s.identities[id], nil
	}
	return identitymodels.Identity{}, ErrNotFound
}

func (s *MemoryIdentityStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return ErrNotFound
	}
	identity.PasswordHash = hash
	s.identities[id] = identity
	return nil
}

// markVoted is the atomic conditional update: it flips hasVoted only while the
// flag is still false. Exactly one concurrent caller wins.
func (s *MemoryIdentityStore) markVoted(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return ErrNotFound
	}
	if identity.HasVoted {
		return ErrAlreadyUsed
	}
	identity.HasVoted = true
	s.identities[id] = identity
	return nil
}

// unmarkVoted releases a claim whose vote never landed. Only the ledger calls
// this, and only when the candidate disappeared mid-commit.
func (s *MemoryIdentityStore) unmarkVoted(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return
	}
	identity.HasVoted = false
	s.identities[id] = identity
}

type MemoryCandidateStore struct {
	mu         sync.RWMutex
	candidates map[uuid.UUID]*electionmodels.Candidate
	order      []uuid.UUID
	seq        int64
}

func NewMemoryCandidateStore() *MemoryCandidateStore {
	return &MemoryCandidateStore{
		candidates: make(map[uuid.UUID]*electionmodels.Candidate),
	}
}

func (s *MemoryCandidateStore) Save(_ context.Context, candidate electionmodels.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	candidate.Seq = s.seq
	stored := candidate
	s.candidates[candidate.ID] = &stored
	s.order = append(s.order, candidate.ID)
	return nil
}

func (s *MemoryCandidateStore) FindByID(_ context.Context, id uuid.UUID) (electionmodels.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[id]
	if !ok {
		return electionmodels.Candidate{}, ErrNotFound
	}
	return copyCandidate(candidate), nil
}

func (s *MemoryCandidateStore) List(_ context.Context) ([]electionmodels.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]electionmodels.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyCandidate(s.candidates[id]))
	}
	return out, nil
}

func (s *MemoryCandidateStore) Update(_ context.Context, id uuid.UUID, name, party string) (electionmodels.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[id]
	if !ok {
		return electionmodels.Candidate{}, ErrNotFound
	}
	candidate.Name = name
	candidate.Party = party
	return copyCandidate(candidate), nil
}

func (s *MemoryCandidateStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return ErrNotFound
	}
	delete(s.candidates, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryCandidateStore) appendVote(id uuid.UUID, vote electionmodels.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[id]
	if !ok {
		return ErrNotFound
	}
	candidate.Votes = append(candidate.Votes, vote)
	candidate.VoteCount = len(candidate.Votes)
	return nil
}

func copyCandidate(c *electionmodels.Candidate) electionmodels.Candidate {
	out := *c
	out.Votes = append([]electionmodels.Vote(nil), c.Votes...)
	return out
}

// MemoryLedger commits votes against the in-memory stores. The hasVoted flag
// is the serialization point: claiming it first guarantees at most one vote
// per voter; if the candidate vanished between the service's check and the
// append, the claim is released so no partial state remains.
type MemoryLedger struct {
	identities *MemoryIdentityStore
	candidates *MemoryCandidateStore
}

func NewMemoryLedger(identities *MemoryIdentityStore, candidates *MemoryCandidateStore) *MemoryLedger {
	return &MemoryLedger{identities: identities, candidates: candidates}
}

// RecordVote claims the voter's flag first, then appends the vote. While the
// compensation below is in flight, a concurrent cast from the same voter can
// be told already-voted even though no vote ends up persisted; the flag is
// released before RecordVote returns, so the voter's next attempt succeeds.
func (l *MemoryLedger) RecordVote(_ context.Context, voterID, candidateID uuid.UUID, at time.Time) error {
	if err := l.identities.markVoted(voterID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrVoterNotFound
		}
		return err
	}
	if err := l.candidates.appendVote(candidateID, electionmodels.Vote{VoterID: voterID, CastAt: at}); err != nil {
		l.identities.unmarkVoted(voterID)
		if errors.Is(err, ErrNotFound) {
			return ErrCandidateNotFound
		}
		return err
	}
	return nil
}
