package store

import (
	"context"
	"database/sql"
	"errors"

	"voice-campaigns/pkg/utils"
)

// PostgresStore keeps documents in a single jsonb table.
//
// Schema (created by EnsureSchema):
//
//	kv_documents(collection text, id text, value jsonb, updated_at timestamptz)
//	PRIMARY KEY (collection, id)
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS kv_documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)
`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, value []byte) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO kv_documents (collection, id, value, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, id) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
		_, err := tx.ExecContext(ctx, q, collection, id, string(value))
		return err
	})
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := validKey(collection, id); err != nil {
		return nil, err
	}
	const q = `
SELECT value::text
FROM kv_documents
WHERE collection = $1 AND id = $2
`
	var v string
	if err := s.db.QueryRowContext(ctx, q, collection, id).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(v), nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([][]byte, error) {
	if collection == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT value::text
FROM kv_documents
WHERE collection = $1
ORDER BY id
`
	rows, err := s.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]byte, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, []byte(v))
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	const q = `DELETE FROM kv_documents WHERE collection = $1 AND id = $2`
	_, err := s.db.ExecContext(ctx, q, collection, id)
	return err
}
