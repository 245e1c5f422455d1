package storage

import (
	"fmt"

	"ballotgate/pkg/platform/sentinel"
)

// Re-exported sentinels keep call sites inside this package short and the
// error identity shared across memory and postgres implementations.
var (
	ErrNotFound    = sentinel.ErrNotFound
	ErrConflict    = sentinel.ErrConflict
	ErrAlreadyUsed = sentinel.ErrAlreadyUsed
)

// RecordVote names which side of the binding is missing. Both match
// sentinel.ErrNotFound through the chain; callers that need the entity check
// the specific error first.
var (
	ErrVoterNotFound     = fmt.Errorf("voter: %w", sentinel.ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("candidate: %w", sentinel.ErrNotFound)
)
