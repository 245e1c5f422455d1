package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"ballotgate/internal/audit"
	"ballotgate/internal/election/models"
	identitymodels "ballotgate/internal/identity/models"
	"ballotgate/internal/platform/metrics"
	"ballotgate/internal/storage"
	dErrors "ballotgate/pkg/domain-errors"
	"ballotgate/pkg/platform/sentinel"
)

// CandidateStore is the slice of the storage layer this service needs.
type CandidateStore interface {
	Save(ctx context.Context, candidate models.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Candidate, error)
	List(ctx context.Context) ([]models.Candidate, error)
	Update(ctx context.Context, id uuid.UUID, name, party string) (models.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VoteLedger commits a vote atomically against the one-vote-per-voter rule.
type VoteLedger interface {
	RecordVote(ctx context.Context, voterID, candidateID uuid.UUID, at time.Time) error
}

// Authorizer answers role checks against the identity service without this
// package importing it.
type Authorizer interface {
	Authorize(ctx context.Context, identityID string, required identitymodels.Role) bool
}

// TallyCache is the optional Redis layer in front of the ranked tally.
type TallyCache interface {
	Get(ctx context.Context) ([]models.TallyEntry, bool)
	Set(ctx context.Context, entries []models.TallyEntry) error
	Invalidate(ctx context.Context) error
}

// Service implements candidate management, vote casting, and the public read
// endpoints. Candidate mutations are admin-gated; voting is voter-gated; the
// list and tally are open.
type Service struct {
	candidates CandidateStore
	ledger     VoteLedger
	authorizer Authorizer
	cache      TallyCache
	audit      *audit.Service
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	tallyGroup singleflight.Group
}

func NewService(
	candidates CandidateStore,
	ledger VoteLedger,
	authorizer Authorizer,
	cache TallyCache,
	auditSvc *audit.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		candidates: candidates,
		ledger:     ledger,
		authorizer: authorizer,
		cache:      cache,
		audit:      auditSvc,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("ballotgate/election"),
	}
}

// AddCandidate registers a new candidate. Admin only.
func (s *Service) AddCandidate(ctx context.Context, identityID string, req *models.CandidateRequest) (*models.CandidateRecord, error) {
	if err := s.requireAdmin(ctx, identityID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidate := models.Candidate{
		ID:        uuid.New(),
		Name:      req.Name,
		Party:     req.Party,
		CreatedAt: time.Now(),
	}
	if err := s.candidates.Save(ctx, candidate); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not save candidate", err)
	}

	s.invalidateTally(ctx)
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionCandidateAdded,
		Subject:    candidate.ID.String(),
		Outcome:    audit.OutcomeOK,
	})
	s.logger.InfoContext(ctx, "candidate added",
		"candidate_id", candidate.ID,
		"party", candidate.Party,
	)

	record := models.Record(candidate)
	return &record, nil
}

// UpdateCandidate changes name and party. Votes already cast stay attached.
func (s *Service) UpdateCandidate(ctx context.Context, identityID, candidateID string, req *models.CandidateRequest) (*models.CandidateRecord, error) {
	if err := s.requireAdmin(ctx, identityID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := parseCandidateID(candidateID)
	if err != nil {
		return nil, err
	}

	candidate, err := s.candidates.Update(ctx, id, req.Name, req.Party)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update candidate", err)
	}

	s.invalidateTally(ctx)
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionCandidateUpdated,
		Subject:    id.String(),
		Outcome:    audit.OutcomeOK,
	})

	record := models.Record(candidate)
	return &record, nil
}

// RemoveCandidate deletes a candidate and its votes. Voters who chose it keep
// their hasVoted flag; removal does not re-enfranchise anyone.
func (s *Service) RemoveCandidate(ctx context.Context, identityID, candidateID string) error {
	if err := s.requireAdmin(ctx, identityID); err != nil {
		return err
	}
	id, err := parseCandidateID(candidateID)
	if err != nil {
		return err
	}

	if err := s.candidates.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not delete candidate", err)
	}

	s.invalidateTally(ctx)
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionCandidateRemoved,
		Subject:    id.String(),
		Outcome:    audit.OutcomeOK,
	})
	s.logger.InfoContext(ctx, "candidate removed", "candidate_id", id)
	return nil
}

// CastVote records one vote from the authenticated voter. The checks run in a
// fixed order so clients see stable errors: candidate existence, admin role,
// then the atomic hasVoted commit in the ledger.
func (s *Service) CastVote(ctx context.Context, voterID, candidateID string) error {
	ctx, span := s.tracer.Start(ctx, "election.cast_vote")
	defer span.End()

	voter, err := uuid.Parse(voterID)
	if err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	candidate, err := parseCandidateID(candidateID)
	if err != nil {
		return err
	}

	if _, err := s.candidates.FindByID(ctx, candidate); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.rejectVote(ctx, voterID, candidateID, "candidate_not_found")
			return dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not look up candidate", err)
	}

	if s.authorizer.Authorize(ctx, voterID, identitymodels.RoleAdmin) {
		s.rejectVote(ctx, voterID, candidateID, "admin_role")
		return dErrors.New(dErrors.CodeForbidden, "admin is not allowed to vote")
	}

	if err := s.ledger.RecordVote(ctx, voter, candidate, time.Now()); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.rejectVote(ctx, voterID, candidateID, "already_voted")
			return dErrors.New(dErrors.CodeBadRequest, "you have already voted")
		case errors.Is(err, storage.ErrCandidateNotFound):
			// The candidate vanished between the check above and the commit.
			s.rejectVote(ctx, voterID, candidateID, "candidate_not_found")
			return dErrors.New(dErrors.CodeNotFound, "candidate not found")
		case errors.Is(err, sentinel.ErrNotFound):
			s.rejectVote(ctx, voterID, candidateID, "voter_not_found")
			return dErrors.New(dErrors.CodeNotFound, "voter not found")
		default:
			return dErrors.Wrap(dErrors.CodeInternal, "could not record vote", err)
		}
	}

	if s.metrics != nil {
		s.metrics.VotesAccepted.Inc()
	}
	s.invalidateTally(ctx)
	s.emit(ctx, audit.Event{
		IdentityID: voterID,
		Action:     audit.ActionVoteCast,
		Subject:    candidateID,
		Outcome:    audit.OutcomeOK,
	})
	s.logger.InfoContext(ctx, "vote recorded", "candidate_id", candidateID)
	return nil
}

// ListCandidates returns the public listing in registration order.
func (s *Service) ListCandidates(ctx context.Context) ([]models.CandidateSummary, error) {
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not list candidates", err)
	}
	summaries := make([]models.CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries, models.CandidateSummary{Name: c.Name, Party: c.Party})
	}
	return summaries, nil
}

// Tally returns one row per candidate, sorted by vote count descending with
// registration order breaking ties. Same-party candidates stay separate rows.
// Reads go through the cache when one is configured; concurrent recomputes
// collapse into a single store pass.
func (s *Service) Tally(ctx context.Context) ([]models.TallyEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx); ok {
			s.recordCacheLookup("hit")
			return entries, nil
		}
		s.recordCacheLookup("miss")
	}

	result, err, _ := s.tallyGroup.Do("tally", func() (any, error) {
		candidates, err := s.candidates.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "could not compute tally", err)
		}
		entries := rank(candidates)
		if s.cache != nil {
			if err := s.cache.Set(ctx, entries); err != nil {
				s.logger.WarnContext(ctx, "could not cache tally", "error", err.Error())
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.TallyEntry), nil
}

func rank(candidates []models.Candidate) []models.TallyEntry {
	ranked := append([]models.Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].VoteCount != ranked[j].VoteCount {
			return ranked[i].VoteCount > ranked[j].VoteCount
		}
		return ranked[i].Seq < ranked[j].Seq
	})
	entries := make([]models.TallyEntry, 0, len(ranked))
	for _, c := range ranked {
		entries = append(entries, models.TallyEntry{Party: c.Party, Count: c.VoteCount})
	}
	return entries
}

func (s *Service) requireAdmin(ctx context.Context, identityID string) error {
	if identityID == "" || !s.authorizer.Authorize(ctx, identityID, identitymodels.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

func parseCandidateID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid candidate id")
	}
	return id, nil
}

func (s *Service) invalidateTally(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "could not invalidate tally cache", "error", err.Error())
	}
}

func (s *Service) rejectVote(ctx context.Context, voterID, candidateID, reason string) {
	if s.metrics != nil {
		s.metrics.RecordVoteRejected(reason)
	}
	s.emit(ctx, audit.Event{
		IdentityID: voterID,
		Action:     audit.ActionVoteCast,
		Subject:    candidateID,
		Outcome:    audit.OutcomeRejected,
		Reason:     reason,
	})
}

func (s *Service) recordCacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.TallyCacheHit.WithLabelValues(result).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}
