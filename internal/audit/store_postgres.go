package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore appends audit events over database/sql. The trail shares the
// application database but is written on its own connection pool so a noisy
// trail cannot starve vote transactions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the audit table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	identity_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	device      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_identity_idx ON audit_events (identity_id, occurred_at);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (occurred_at, identity_id, action, subject, outcome, reason, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.Timestamp, event.IdentityID, event.Action, event.Subject, event.Outcome, event.Reason, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, identity_id, action, subject, outcome, reason, device
		FROM audit_events
		WHERE identity_id = $1
		ORDER BY occurred_at`,
		identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.Timestamp, &event.IdentityID, &event.Action, &event.Subject, &event.Outcome, &event.Reason, &event.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
