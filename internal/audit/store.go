package audit

import "context"

// Store is an append-only event sink with per-identity reads for operational
// queries. No tamper evidence is claimed or attempted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByIdentity(ctx context.Context, identityID string) ([]Event, error)
}
