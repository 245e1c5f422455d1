package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	identityModel "ballotgate/internal/identity/models"
	"ballotgate/internal/platform/middleware"
	"ballotgate/internal/transport/http/shared"
	dErrors "ballotgate/pkg/domain-errors"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	Signup(ctx context.Context, req *identityModel.SignupRequest) (*identityModel.SignupResult, error)
	Login(ctx context.Context, req *identityModel.LoginRequest) (*identityModel.LoginResult, error)
	Profile(ctx context.Context, identityID string) (*identityModel.IdentityRecord, error)
	ChangePassword(ctx context.Context, identityID string, req *identityModel.ChangePasswordRequest) error
}

// Handler exposes the credential endpoints.
type Handler struct {
	identity  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(identity Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		identity:  identity,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the identity routes. Signup and login are public; the
// profile routes sit behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/identity", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Get("/profile", h.handleProfile)
			r.Put("/profile/password", h.handleChangePassword)
		})
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req identityModel.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid signup request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.identity.Signup(ctx, &req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "signup failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register identity"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req identityModel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.identity.Login(ctx, &req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to log in"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	if identityID == "" {
		h.logger.ErrorContext(ctx, "identity id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	record, err := h.identity.Profile(ctx, identityID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	identityID := middleware.GetIdentityID(ctx)
	if identityID == "" {
		h.logger.ErrorContext(ctx, "identity id missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req identityModel.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid change password request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.identity.ChangePassword(ctx, identityID, &req); err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "change password failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to change password"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
