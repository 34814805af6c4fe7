package repository

import (
	"context"
	"errors"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	helpers "jackpoints/internal/utils/helpers"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	logger.Log.Debug("Получение профиля по email (repo)", zap.String("email_masked", helpers.MaskEmail(email)))
	query := `
		SELECT id, email, full_name, password_hash, role, created_at, updated_at
		FROM profiles
		WHERE lower(email) = lower($1)
		LIMIT 1
	`

	var p models.Profile
	err := r.db.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.PasswordHash,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.Error("Ошибка получения профиля по email (repo)", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET password_hash = $1, updated_at = now() WHERE lower(email) = lower($2)`,
		passwordHash, email,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
