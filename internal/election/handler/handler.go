package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	electionModel "ballotgate/internal/election/models"
	"ballotgate/internal/platform/middleware"
	"ballotgate/internal/transport/http/shared"
	dErrors "ballotgate/pkg/domain-errors"
)

// Service defines the election operations the handler exposes.
type Service interface {
	AddCandidate(ctx context.Context, identityID string, req *electionModel.CandidateRequest) (*electionModel.CandidateRecord, error)
	UpdateCandidate(ctx context.Context, identityID, candidateID string, req *electionModel.CandidateRequest) (*electionModel.CandidateRecord, error)
	RemoveCandidate(ctx context.Context, identityID, candidateID string) error
	CastVote(ctx context.Context, voterID, candidateID string) error
	ListCandidates(ctx context.Context) ([]electionModel.CandidateSummary, error)
	Tally(ctx context.Context) ([]electionModel.TallyEntry, error)
}

// Handler exposes the candidate and voting endpoints.
type Handler struct {
	election  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(election Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		election:  election,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the candidate routes. The tally and listing are public;
// everything that writes requires a bearer token, with the admin check living
// in the service where the role is resolved.
func (h *Handler) Register(r chi.Router) {
	r.Route("/candidate", func(r chi.Router) {
		r.Get("/", h.handleListCandidates)
		r.Get("/vote/count", h.handleTally)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/", h.handleAddCandidate)
			r.Put("/{candidateID}", h.handleUpdateCandidate)
			r.Delete("/{candidateID}", h.handleRemoveCandidate)
			r.Post("/vote/{candidateID}", h.handleCastVote)
		})
	})
}

func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	var req electionModel.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid add candidate request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.election.AddCandidate(ctx, identityID, &req)
	if err != nil {
		h.writeServiceError(w, r, "add candidate failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	candidateID := chi.URLParam(r, "candidateID")

	var req electionModel.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update candidate request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.election.UpdateCandidate(ctx, identityID, candidateID, &req)
	if err != nil {
		h.writeServiceError(w, r, "update candidate failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	candidateID := chi.URLParam(r, "candidateID")

	if err := h.election.RemoveCandidate(ctx, identityID, candidateID); err != nil {
		h.writeServiceError(w, r, "remove candidate failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "candidate removed"})
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	voterID := middleware.GetIdentityID(ctx)
	candidateID := chi.URLParam(r, "candidateID")

	if err := h.election.CastVote(ctx, voterID, candidateID); err != nil {
		h.writeServiceError(w, r, "cast vote failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "vote recorded"})
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.election.ListCandidates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list candidates failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleTally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.election.Tally(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "tally failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tally)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}
	shared.WriteError(w, err)
}
