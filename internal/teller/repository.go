package teller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema creates the journal table used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS teller_transactions (
    id            UUID PRIMARY KEY,
    account_id    TEXT        NOT NULL,
    kind          TEXT        NOT NULL,
    amount        NUMERIC     NOT NULL,
    balance_after NUMERIC     NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS teller_transactions_account_idx
    ON teller_transactions (account_id, created_at DESC)`

// Repository journals balance movements.
type Repository interface {
	Append(ctx context.Context, tx Transaction) error
	Recent(ctx context.Context, accountID string, limit int) ([]Transaction, error)
}

// PostgresRepository stores the journal in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the journal table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create teller_transactions table: %w", err)
	}
	return nil
}

// Append inserts a journal entry.
func (r *PostgresRepository) Append(ctx context.Context, tx Transaction) error {
	id, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO teller_transactions (id, account_id, kind, amount, balance_after, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)`,
		id, tx.AccountID, string(tx.Kind), tx.Amount.String(), tx.BalanceAfter.String(), tx.CreatedAt.UTC())
	return err
}

// Recent returns up to limit entries for accountID, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, kind, amount::text, balance_after::text, created_at
        FROM teller_transactions WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			id            uuid.UUID
			kind          string
			amount, after string
			createdAt     time.Time
		)
		if err := rows.Scan(&id, &kind, &amount, &after, &createdAt); err != nil {
			return nil, err
		}
		tx := Transaction{ID: id.String(), AccountID: accountID, Kind: Kind(kind), CreatedAt: createdAt.UTC()}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if tx.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, fmt.Errorf("parse balance: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
