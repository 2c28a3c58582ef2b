package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the credentials table used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    email          TEXT PRIMARY KEY,
    password_hash  BYTEA       NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    last_login_at  TIMESTAMPTZ,
    last_logout_at TIMESTAMPTZ
)`

// Repository persists provider credentials.
type Repository interface {
	Create(ctx context.Context, cred Credential) error
	FindByEmail(ctx context.Context, email string) (Credential, error)
	RecordLogin(ctx context.Context, email string, at time.Time) error
	RecordLogout(ctx context.Context, email string, at time.Time) error
	Delete(ctx context.Context, email string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed credential repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the credentials table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

// Create inserts a new credential.
func (r *PostgresRepository) Create(ctx context.Context, cred Credential) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO credentials (email, password_hash, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING`, cred.Email, cred.PasswordHash, cred.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCredentialExists
	}
	return nil
}

// FindByEmail fetches a credential by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Credential, error) {
	row := r.db.QueryRow(ctx, `SELECT email, password_hash, created_at, last_login_at, last_logout_at
        FROM credentials WHERE email = $1`, email)
	var cred Credential
	if err := row.Scan(&cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.LastLogin, &cred.LastLogout); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrCredentialNotFound
		}
		return Credential{}, err
	}
	cred.CreatedAt = cred.CreatedAt.UTC()
	return cred, nil
}

// RecordLogin stamps the last successful authentication.
func (r *PostgresRepository) RecordLogin(ctx context.Context, email string, at time.Time) error {
	return r.stamp(ctx, `UPDATE credentials SET last_login_at = $1 WHERE email = $2`, email, at)
}

// RecordLogout stamps the last ended session.
func (r *PostgresRepository) RecordLogout(ctx context.Context, email string, at time.Time) error {
	return r.stamp(ctx, `UPDATE credentials SET last_logout_at = $1 WHERE email = $2`, email, at)
}

// Delete removes the credential for email.
func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (r *PostgresRepository) stamp(ctx context.Context, query, email string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, query, at.UTC(), email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
