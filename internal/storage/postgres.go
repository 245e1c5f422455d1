package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	electionmodels "ballotgate/internal/election/models"
	identitymodels "ballotgate/internal/identity/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// CreateSchema creates the tables if they do not exist. Kept as plain DDL so a
// fresh database is usable without a migration tool.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	age           INT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	mobile        TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL,
	national_id   TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	has_voted     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS candidates (
	id         UUID PRIMARY KEY,
	seq        BIGINT GENERATED ALWAYS AS IDENTITY,
	name       TEXT NOT NULL,
	party      TEXT NOT NULL,
	vote_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS votes (
	voter_id     UUID PRIMARY KEY,
	candidate_id UUID NOT NULL REFERENCES candidates (id) ON DELETE CASCADE,
	cast_at      TIMESTAMPTZ NOT NULL
);`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type PostgresIdentityStore struct {
	pool *pgxpool.Pool
}

func NewPostgresIdentityStore(pool *pgxpool.Pool) *PostgresIdentityStore {
	return &PostgresIdentityStore{pool: pool}
}

func (s *PostgresIdentityStore) Save(ctx context.Context, identity identitymodels.Identity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, name, age, email, mobile, address, national_id, password_hash, role, has_voted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		identity.ID, identity.Name, identity.Age, identity.Email, identity.Mobile,
		identity.Address, identity.NationalID, identity.PasswordHash,
		string(identity.Role), identity.HasVoted, identity.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (identitymodels.Identity, error) {
	return s.findBy(ctx, `WHERE id = $1`, id)
}

func (s *PostgresIdentityStore) FindByNationalID(ctx context.Context, nationalID string) (identitymodels.Identity, error) {
	return s.findBy(ctx, `WHERE national_id = $1`, nationalID)
}

func (s *PostgresIdentityStore) findBy(ctx context.Context, where string, arg any) (identitymodels.Identity, error) {
	var (
		identity identitymodels.Identity
		role     string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, age, email, mobile, address, national_id, password_hash, role, has_voted, created_at
		FROM identities `+where,
		arg,
	).Scan(
		&identity.ID, &identity.Name, &identity.Age, &identity.Email, &identity.Mobile,
		&identity.Address, &identity.NationalID, &identity.PasswordHash,
		&role, &identity.HasVoted, &identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identitymodels.Identity{}, ErrNotFound
		}
		return identitymodels.Identity{}, fmt.Errorf("find identity: %w", err)
	}
	identity.Role = identitymodels.Role(role)
	return identity, nil
}

func (s *PostgresIdentityStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE identities SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type PostgresCandidateStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCandidateStore(pool *pgxpool.Pool) *PostgresCandidateStore {
	return &PostgresCandidateStore{pool: pool}
}

func (s *PostgresCandidateStore) Save(ctx context.Context, candidate electionmodels.Candidate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candidates (id, name, party, vote_count, created_at)
		VALUES ($1, $2, $3, 0, $4)`,
		candidate.ID, candidate.Name, candidate.Party, candidate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save candidate: %w", err)
	}
	return nil
}

func (s *PostgresCandidateStore) FindByID(ctx context.Context, id uuid.UUID) (electionmodels.Candidate, error) {
	var candidate electionmodels.Candidate
	err := s.pool.QueryRow(ctx, `
		SELECT id, seq, name, party, vote_count, created_at
		FROM candidates WHERE id = $1`,
		id,
	).Scan(&candidate.ID, &candidate.Seq, &candidate.Name, &candidate.Party, &candidate.VoteCount, &candidate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return electionmodels.Candidate{}, ErrNotFound
		}
		return electionmodels.Candidate{}, fmt.Errorf("find candidate: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT voter_id, cast_at FROM votes
		WHERE candidate_id = $1 ORDER BY cast_at, voter_id`,
		id,
	)
	if err != nil {
		return electionmodels.Candidate{}, fmt.Errorf("load votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vote electionmodels.Vote
		if err := rows.Scan(&vote.VoterID, &vote.CastAt); err != nil {
			return electionmodels.Candidate{}, fmt.Errorf("scan vote: %w", err)
		}
		candidate.Votes = append(candidate.Votes, vote)
	}
	if err := rows.Err(); err != nil {
		return electionmodels.Candidate{}, fmt.Errorf("load votes: %w", err)
	}
	return candidate, nil
}

func (s *PostgresCandidateStore) List(ctx context.Context) ([]electionmodels.Candidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, seq, name, party, vote_count, created_at
		FROM candidates ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []electionmodels.Candidate
	for rows.Next() {
		var candidate electionmodels.Candidate
		if err := rows.Scan(&candidate.ID, &candidate.Seq, &candidate.Name, &candidate.Party, &candidate.VoteCount, &candidate.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

func (s *PostgresCandidateStore) Update(ctx context.Context, id uuid.UUID, name, party string) (electionmodels.Candidate, error) {
	var candidate electionmodels.Candidate
	err := s.pool.QueryRow(ctx, `
		UPDATE candidates SET name = $2, party = $3
		WHERE id = $1
		RETURNING id, seq, name, party, vote_count, created_at`,
		id, name, party,
	).Scan(&candidate.ID, &candidate.Seq, &candidate.Name, &candidate.Party, &candidate.VoteCount, &candidate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return electionmodels.Candidate{}, ErrNotFound
		}
		return electionmodels.Candidate{}, fmt.Errorf("update candidate: %w", err)
	}
	return candidate, nil
}

func (s *PostgresCandidateStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresLedger commits a vote in a single transaction spanning the voter's
// hasVoted flag, the vote row, and the candidate counter. The conditional
// UPDATE on has_voted is the serialization point; losers of the race see zero
// affected rows and the whole transaction rolls back.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) RecordVote(ctx context.Context, voterID, candidateID uuid.UUID, at time.Time) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE identities SET has_voted = TRUE
		WHERE id = $1 AND has_voted = FALSE`,
		voterID,
	)
	if err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE id = $1)`, voterID).Scan(&exists); err != nil {
			return fmt.Errorf("check voter: %w", err)
		}
		if !exists {
			return ErrVoterNotFound
		}
		return ErrAlreadyUsed
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO votes (voter_id, candidate_id, cast_at)
		VALUES ($1, $2, $3)`,
		voterID, candidateID, at,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrAlreadyUsed
			case pgForeignKeyViolation:
				// Unknown candidate; the rollback releases the flag.
				return ErrCandidateNotFound
			}
		}
		return fmt.Errorf("insert vote: %w", err)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE candidates SET vote_count = vote_count + 1
		WHERE id = $1`,
		candidateID,
	)
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCandidateNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit vote tx: %w", err)
	}
	return nil
}
