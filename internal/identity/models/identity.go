package models

import (
	"time"

	"github.com/google/uuid"
)

// Role separates the electorate from election administrators. Admins manage
// the candidate list and are barred from voting.
type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin
}

// Identity is a registered person record. NationalID is unique and immutable
// after creation; PasswordHash never holds plaintext once persisted. HasVoted
// transitions false to true exactly once, through the ledger's conditional
// update only.
type Identity struct {
	ID           uuid.UUID
	Name         string
	Age          int
	Email        string
	Mobile       string
	Address      string
	NationalID   string
	PasswordHash string
	Role         Role
	HasVoted     bool
	CreatedAt    time.Time
}
