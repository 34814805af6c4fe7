package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Таблицы создаются идемпотентно при старте.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		full_name     TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		user_email  TEXT NOT NULL,
		user_name   TEXT,
		amount      BIGINT NOT NULL,
		description TEXT NOT NULL,
		ts          BIGINT NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('earn','spend','bonus','event','admin')),
		metadata    JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_ts_idx ON transactions (user_id, ts DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_ts_idx ON transactions (ts DESC)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		token_hash TEXT PRIMARY KEY,
		email      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS password_reset_tokens_created_idx ON password_reset_tokens (created_at)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
