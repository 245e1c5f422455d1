package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "ballotgate/pkg/domain-errors"
)

// SignupRequest carries the fields of a new identity plus the plaintext
// password, which exists only for the duration of the request.
type SignupRequest struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Email      string `json:"email,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Address    string `json:"address"`
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
	Role       string `json:"role,omitempty"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Address = strings.TrimSpace(r.Address)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Role = strings.TrimSpace(strings.ToLower(r.Role))
	if r.Role == "" {
		r.Role = string(RoleVoter)
	}
}

func (r *SignupRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if r.Age < 18 {
		return dErrors.New(dErrors.CodeInvalidInput, "must be at least 18 years old")
	}
	if r.NationalID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "national_id is required")
	}
	if r.Address == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(r.Password) < 4 {
		return dErrors.New(dErrors.CodeInvalidInput, "password is too short")
	}
	if !Role(r.Role).Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "role must be voter or admin")
	}
	return nil
}

// LoginRequest authenticates by national id and password.
type LoginRequest struct {
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.NationalID = strings.TrimSpace(r.NationalID)
}

func (r *LoginRequest) Validate() error {
	if r.NationalID == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "national_id and password are required")
	}
	return nil
}

// ChangePasswordRequest verifies the current password before replacing it.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "current_password is required")
	}
	if len(r.NewPassword) < 4 {
		return dErrors.New(dErrors.CodeInvalidInput, "new password is too short")
	}
	return nil
}

// IdentityRecord is the client-facing view of an Identity. The password hash
// never crosses this boundary.
type IdentityRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Email      string    `json:"email,omitempty"`
	Mobile     string    `json:"mobile,omitempty"`
	Address    string    `json:"address"`
	NationalID string    `json:"national_id"`
	Role       Role      `json:"role"`
	HasVoted   bool      `json:"has_voted"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record strips the credential material from an Identity.
func Record(id Identity) IdentityRecord {
	return IdentityRecord{
		ID:         id.ID,
		Name:       id.Name,
		Age:        id.Age,
		Email:      id.Email,
		Mobile:     id.Mobile,
		Address:    id.Address,
		NationalID: id.NationalID,
		Role:       id.Role,
		HasVoted:   id.HasVoted,
		CreatedAt:  id.CreatedAt,
	}
}

// SignupResult returns the stored record plus a fresh session token.
type SignupResult struct {
	Record IdentityRecord `json:"record"`
	Token  string         `json:"token"`
}

// LoginResult carries the session token.
type LoginResult struct {
	Token string `json:"token"`
}
