package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the documents table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    fields     JSONB       NOT NULL DEFAULT '{}'::jsonb,
    rev        BIGINT      NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
ALTER TABLE documents ADD COLUMN IF NOT EXISTS rev BIGINT NOT NULL DEFAULT 0`

// PostgresStore keeps documents as JSONB rows and announces every committed
// write on a Feed. Each write bumps the row's rev so that listeners can order
// snapshots published by concurrent writers.
type PostgresStore struct {
	db     *pgxpool.Pool
	feed   Feed
	logger *slog.Logger
}

// NewPostgresStore builds a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool, feed Feed, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, feed: feed, logger: logger}
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// GetDocument fetches a document by collection and id.
func (s *PostgresStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT fields FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(raw)
}

// GetField extracts a single value with the JSONB path operator.
func (s *PostgresStore) GetField(ctx context.Context, collection, id, path string) (any, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT fields #> $3 FROM documents WHERE collection = $1 AND id = $2`,
		collection, id, strings.Split(path, ".")).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, fmt.Errorf("decode field %s: %w", path, err)
	}
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// Subscribe listens on the feed for changes to one document.
func (s *PostgresStore) Subscribe(ctx context.Context, collection, id string, onSnapshot func(Document), onError func(error)) (Subscription, error) {
	load := func(ctx context.Context) (Snapshot, error) {
		var raw []byte
		var rev int64
		err := s.db.QueryRow(ctx, `SELECT fields, rev FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw, &rev)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Snapshot{}, ErrNotFound
			}
			return Snapshot{}, err
		}
		doc, err := Decode(raw)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Rev: rev, Doc: doc}, nil
	}
	return subscribe(ctx, s.feed, Key(collection, id), load, onSnapshot, onError)
}

// PutDocument inserts or replaces a document.
func (s *PostgresStore) PutDocument(ctx context.Context, collection, id string, doc Document) error {
	payload, err := doc.Encode()
	if err != nil {
		return err
	}
	var rev int64
	err = s.db.QueryRow(ctx, `INSERT INTO documents (collection, id, fields, rev, updated_at) VALUES ($1, $2, $3, 1, now())
        ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields, rev = documents.rev + 1, updated_at = now()
        RETURNING rev`, collection, id, payload).Scan(&rev)
	if err != nil {
		return err
	}
	s.publish(ctx, collection, id, Snapshot{Rev: rev, Doc: doc})
	return nil
}

// CreateDocument inserts doc unless the key is already taken.
func (s *PostgresStore) CreateDocument(ctx context.Context, collection, id string, doc Document) error {
	payload, err := doc.Encode()
	if err != nil {
		return err
	}
	cmd, err := s.db.Exec(ctx, `INSERT INTO documents (collection, id, fields, rev, updated_at) VALUES ($1, $2, $3, 1, now())
        ON CONFLICT (collection, id) DO NOTHING`, collection, id, payload)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExists
	}
	s.publish(ctx, collection, id, Snapshot{Rev: 1, Doc: doc})
	return nil
}

// UpdateDocument applies fn to the stored document inside a row-locking
// transaction.
func (s *PostgresStore) UpdateDocument(ctx context.Context, collection, id string, fn func(Document) error) (Document, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT fields FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	payload, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	var rev int64
	if err := tx.QueryRow(ctx, `UPDATE documents SET fields = $3, rev = rev + 1, updated_at = now()
        WHERE collection = $1 AND id = $2 RETURNING rev`, collection, id, payload).Scan(&rev); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish(ctx, collection, id, Snapshot{Rev: rev, Doc: doc})
	return doc, nil
}

// publish runs after commit; a lost notification is logged rather than
// reported as a failed write.
func (s *PostgresStore) publish(ctx context.Context, collection, id string, snap Snapshot) {
	if err := s.feed.Publish(ctx, Key(collection, id), snap); err != nil && s.logger != nil {
		s.logger.Warn("publish document change", "collection", collection, "id", id, "error", err)
	}
}
