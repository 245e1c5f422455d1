package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "ballotgate/pkg/domain-errors"
)

// Vote is a one-time binding between a voter and a candidate. Votes are
// immutable and never deleted in normal operation.
type Vote struct {
	VoterID uuid.UUID `json:"voter_id"`
	CastAt  time.Time `json:"cast_at"`
}

// Candidate carries its vote records in insertion order; VoteCount always
// equals len(Votes). Seq is the registration order used for tally tie-breaks.
type Candidate struct {
	ID        uuid.UUID
	Name      string
	Party     string
	Votes     []Vote
	VoteCount int
	Seq       int64
	CreatedAt time.Time
}

// CandidateRequest creates or updates a candidate.
type CandidateRequest struct {
	Name  string `json:"name"`
	Party string `json:"party"`
}

func (r *CandidateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Party = strings.TrimSpace(r.Party)
}

func (r *CandidateRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if r.Party == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "party is required")
	}
	return nil
}

// CandidateRecord is the client-facing view of a candidate.
type CandidateRecord struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	VoteCount int       `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

func Record(c Candidate) CandidateRecord {
	return CandidateRecord{
		ID:        c.ID,
		Name:      c.Name,
		Party:     c.Party,
		VoteCount: c.VoteCount,
		CreatedAt: c.CreatedAt,
	}
}

// CandidateSummary is the public listing entry.
type CandidateSummary struct {
	Name  string `json:"name"`
	Party string `json:"party"`
}

// TallyEntry is one candidate's row of the public vote count, sorted by count
// descending with registration order breaking ties. Candidates from the same
// party keep separate rows.
type TallyEntry struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}
