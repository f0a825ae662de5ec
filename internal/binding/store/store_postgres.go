package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres persists bindings in a single table with unique constraints on both
// columns, so the bijection is enforced by the database on the one insert path.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the bindings table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bindings (
			account       BYTEA PRIMARY KEY,
			credential_id BYTEA NOT NULL UNIQUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure bindings schema: %w", err)
	}
	return nil
}

func (s *Postgres) Bind(ctx context.Context, account domain.Account, id domain.CredentialID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bindings (account, credential_id) VALUES ($1, $2)`,
		account[:], id[:])
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert binding: %w", err)
	}
	return nil
}

func (s *Postgres) CredentialOf(ctx context.Context, account domain.Account) (domain.CredentialID, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT credential_id FROM bindings WHERE account = $1`, account[:]).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CredentialID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.CredentialID{}, fmt.Errorf("find binding by account: %w", err)
	}
	return credentialIDFromBytes(raw)
}

func (s *Postgres) AccountOf(ctx context.Context, id domain.CredentialID) (domain.Account, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT account FROM bindings WHERE credential_id = $1`, id[:]).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("find binding by credential: %w", err)
	}
	return accountFromBytes(raw)
}

func (s *Postgres) Walk(ctx context.Context, fn func(domain.Account, domain.CredentialID) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, credential_id FROM bindings ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawAccount, rawID []byte
		if err := rows.Scan(&rawAccount, &rawID); err != nil {
			return fmt.Errorf("scan binding: %w", err)
		}
		account, err := accountFromBytes(rawAccount)
		if err != nil {
			return err
		}
		id, err := credentialIDFromBytes(rawID)
		if err != nil {
			return err
		}
		if err := fn(account, id); err != nil {
			return err
		}
	}
	return rows.Err()
}

func accountFromBytes(raw []byte) (domain.Account, error) {
	var account domain.Account
	if len(raw) != domain.AccountLen {
		return account, fmt.Errorf("stored account has %d bytes, want %d", len(raw), domain.AccountLen)
	}
	copy(account[:], raw)
	return account, nil
}

func credentialIDFromBytes(raw []byte) (domain.CredentialID, error) {
	var id domain.CredentialID
	if len(raw) != domain.CredentialIDLen {
		return id, fmt.Errorf("stored credential id has %d bytes, want %d", len(raw), domain.CredentialIDLen)
	}
	copy(id[:], raw)
	return id, nil
}
