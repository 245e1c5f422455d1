package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ballotgate/internal/audit"
	"ballotgate/internal/identity/models"
	"ballotgate/internal/identity/password"
	"ballotgate/internal/jwttoken"
	"ballotgate/internal/platform/metrics"
	dErrors "ballotgate/pkg/domain-errors"
	"ballotgate/pkg/platform/sentinel"
)

// IdentityStore is the slice of the storage layer this service needs. The
// concrete implementation lives in internal/storage.
type IdentityStore interface {
	Save(ctx context.Context, identity models.Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Identity, error)
	FindByNationalID(ctx context.Context, nationalID string) (models.Identity, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Service implements the credential flows: registration, login, profile reads,
// password change, and role authorization. Tokens come from the jwttoken
// service; this layer never sees plaintext passwords beyond hashing them.
type Service struct {
	identities IdentityStore
	hasher     *password.Hasher
	tokens     *jwttoken.Service
	audit      *audit.Service
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewService(
	identities IdentityStore,
	hasher *password.Hasher,
	tokens *jwttoken.Service,
	auditSvc *audit.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		audit:      auditSvc,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("ballotgate/identity"),
	}
}

// Signup registers a new identity and returns the stored record plus a fresh
// session token. The plaintext password is hashed and discarded here.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.SignupResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	identity := models.Identity{
		ID:           uuid.New(),
		Name:         req.Name,
		Age:          req.Age,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Address:      req.Address,
		NationalID:   req.NationalID,
		PasswordHash: hash,
		Role:         models.Role(req.Role),
		CreatedAt:    time.Now(),
	}

	if err := s.identities.Save(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "national id is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not save identity", err)
	}

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not issue token", err)
	}

	if s.metrics != nil {
		s.metrics.SignupsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		IdentityID: identity.ID.String(),
		Action:     audit.ActionSignup,
		Outcome:    audit.OutcomeOK,
	})
	s.logger.InfoContext(ctx, "identity registered",
		"identity_id", identity.ID,
		"role", identity.Role,
	)

	return &models.SignupResult{
		Record: models.Record(identity),
		Token:  token,
	}, nil
}

// Login verifies national id and password and issues a token. The rejection is
// identical whether the identifier is unknown or the password is wrong.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.login")
	defer span.End()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByNationalID(ctx, req.NationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.rejectLogin(ctx, "", "unknown national id")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not look up identity", err)
	}

	if err := s.hasher.Verify(req.Password, identity.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.rejectLogin(ctx, identity.ID.String(), "password mismatch")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not verify password", err)
	}

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not issue token", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin("ok")
	}
	s.emit(ctx, audit.Event{
		IdentityID: identity.ID.String(),
		Action:     audit.ActionLogin,
		Outcome:    audit.OutcomeOK,
	})

	return &models.LoginResult{Token: token}, nil
}

// Profile resolves the authenticated identity's own record.
func (s *Service) Profile(ctx context.Context, identityID string) (*models.IdentityRecord, error) {
	identity, err := s.resolve(ctx, identityID)
	if err != nil {
		return nil, err
	}
	record := models.Record(identity)
	return &record, nil
}

// ChangePassword verifies the current password before storing a new hash. An
// already-issued token stays valid until expiry; that trade-off is documented,
// not accidental.
func (s *Service) ChangePassword(ctx context.Context, identityID string, req *models.ChangePasswordRequest) error {
	if req == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	identity, err := s.resolve(ctx, identityID)
	if err != nil {
		return err
	}

	if err := s.hasher.Verify(req.CurrentPassword, identity.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not verify password", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.identities.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not update password", err)
	}

	s.emit(ctx, audit.Event{
		IdentityID: identity.ID.String(),
		Action:     audit.ActionPasswordChange,
		Outcome:    audit.OutcomeOK,
	})
	s.logger.InfoContext(ctx, "password changed", "identity_id", identity.ID)
	return nil
}

// Authorize reports whether the identity exists and holds the required role.
// A missing identity is unauthorized, never an error.
func (s *Service) Authorize(ctx context.Context, identityID string, required models.Role) bool {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return false
	}
	identity, err := s.identities.FindByID(ctx, id)
	if err != nil {
		return false
	}
	return identity.Role == required
}

func (s *Service) resolve(ctx context.Context, identityID string) (models.Identity, error) {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	identity, err := s.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Identity{}, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return models.Identity{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up identity", err)
	}
	return identity, nil
}

func (s *Service) rejectLogin(ctx context.Context, identityID, reason string) {
	if s.metrics != nil {
		s.metrics.RecordLogin("rejected")
	}
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionLogin,
		Outcome:    audit.OutcomeRejected,
		Reason:     reason,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}
