package audit

import "time"

// Actions recorded on the trail. Keep the set small and stable; dashboards key
// off these strings.
const (
	ActionSignup           = "identity.signup"
	ActionLogin            = "identity.login"
	ActionPasswordChange   = "identity.password_change"
	ActionVoteCast         = "vote.cast"
	ActionCandidateAdded   = "candidate.added"
	ActionCandidateUpdated = "candidate.updated"
	ActionCandidateRemoved = "candidate.removed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Never put credentials or
// hashes in Subject or Reason.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	IdentityID string    `json:"identity_id"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Device     string    `json:"device,omitempty"`
}

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)
