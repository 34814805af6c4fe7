package repository

import (
	"context"
	"errors"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresResetTokenStore struct {
	db *pgxpool.Pool
}

func NewPostgresResetTokenStore(db *pgxpool.Pool) *PostgresResetTokenStore {
	return &PostgresResetTokenStore{db: db}
}

func (r *PostgresResetTokenStore) Get(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token_hash, email, created_at, expires_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, tokenHash)

	var t models.ResetToken
	if err := row.Scan(&t.TokenHash, &t.Email, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresResetTokenStore) Set(ctx context.Context, token *models.ResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_reset_tokens (token_hash, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_hash) DO UPDATE
		SET email = EXCLUDED.email, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`, token.TokenHash, token.Email, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		logger.Log.Error("Create reset token failed", zap.Error(err))
	}
	return err
}

func (r *PostgresResetTokenStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

func (r *PostgresResetTokenStore) List(ctx context.Context) ([]*models.ResetToken, error) {
	rows, err := r.db.Query(ctx, `SELECT token_hash, email, created_at, expires_at FROM password_reset_tokens`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ResetToken
	for rows.Next() {
		var t models.ResetToken
		if err := rows.Scan(&t.TokenHash, &t.Email, &t.CreatedAt, &t.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// DeleteCreatedBefore удаляет одним запросом все токены старше cutoff.
func (r *PostgresResetTokenStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		logger.Log.Error("Sweep reset tokens failed", zap.Error(err))
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
