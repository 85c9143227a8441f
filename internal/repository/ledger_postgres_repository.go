package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const ledgerSchema = `CREATE TABLE IF NOT EXISTS ledger_documents (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresLedgerStore keeps ledger documents as JSONB rows keyed by ledger key.
type PostgresLedgerStore struct {
	db *sqlx.DB
}

// NewPostgresLedgerStore constructs the store.
func NewPostgresLedgerStore(db *sqlx.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Get fetches one ledger document.
func (s *PostgresLedgerStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	const query = `SELECT value FROM ledger_documents WHERE key = $1`
	var raw []byte
	if err := s.db.GetContext(ctx, &raw, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get ledger document: %w", err)
	}
	return json.RawMessage(raw), true, nil
}

// Set upserts the document at key.
func (s *PostgresLedgerStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	const query = `INSERT INTO ledger_documents (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, []byte(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert ledger document: %w", err)
	}
	return nil
}

// Keys lists keys starting with prefix.
func (s *PostgresLedgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	const query = `SELECT key FROM ledger_documents WHERE key LIKE $1 ESCAPE '\' ORDER BY key ASC`
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, escapeLike(prefix)+"%"); err != nil {
		return nil, fmt.Errorf("list ledger keys: %w", err)
	}
	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
