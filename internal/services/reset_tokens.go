package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"time"

	"go.uber.org/zap"
)

// ResetTokenTTL задаёт срок жизни токена сброса пароля.
const ResetTokenTTL = time.Hour

// ResetTokenStore хранит токены по ключу SHA-256 от токена.
// Get возвращает repository.ErrNotFound, Delete идемпотентен.
type ResetTokenStore interface {
	Get(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	Set(ctx context.Context, token *models.ResetToken) error
	Delete(ctx context.Context, tokenHash string) error
	List(ctx context.Context) ([]*models.ResetToken, error)
}

// bulkSweeper реализуют хранилища, умеющие удалять просроченные одним запросом.
type bulkSweeper interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type ResetTokens struct {
	store ResetTokenStore
	ttl   time.Duration
	now   func() time.Time
}

func NewResetTokens(store ResetTokenStore) *ResetTokens {
	return &ResetTokens{store: store, ttl: ResetTokenTTL, now: time.Now}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Issue создаёт новый токен для email. Прочие живые токены того же email не трогаются.
func (t *ResetTokens) Issue(ctx context.Context, email string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := t.now()
	rec := &models.ResetToken{
		TokenHash: hashToken(token),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(t.ttl),
	}
	if err := t.store.Set(ctx, rec); err != nil {
		return "", upstream("save reset token", err)
	}
	return token, nil
}

// Lookup не проверяет срок и ничего не меняет.
func (t *ResetTokens) Lookup(ctx context.Context, token string) (*models.ResetToken, error) {
	rec, err := t.store.Get(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, upstream("get reset token", err)
	}
	return rec, nil
}

// IsExpired считает срок от CreatedAt, ExpiresAt не используется.
func (t *ResetTokens) IsExpired(rec *models.ResetToken) bool {
	return t.now().Sub(rec.CreatedAt) > t.ttl
}

func (t *ResetTokens) Revoke(ctx context.Context, token string) error {
	if err := t.store.Delete(ctx, hashToken(token)); err != nil {
		return upstream("delete reset token", err)
	}
	return nil
}

// Resolve возвращает email для живого токена. Просроченный токен удаляется.
func (t *ResetTokens) Resolve(ctx context.Context, token string) (string, error) {
	rec, err := t.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	if t.IsExpired(rec) {
		if err := t.Revoke(ctx, token); err != nil {
			logger.Log.Warn("Не удалось удалить просроченный токен сброса", zap.Error(err))
		}
		return "", ErrTokenExpired
	}
	return rec.Email, nil
}

// Sweep удаляет все просроченные токены и возвращает их количество.
func (t *ResetTokens) Sweep(ctx context.Context) (int, error) {
	cutoff := t.now().Add(-t.ttl)

	if bs, ok := t.store.(bulkSweeper); ok {
		n, err := bs.DeleteCreatedBefore(ctx, cutoff)
		if err != nil {
			return 0, upstream("sweep reset tokens", err)
		}
		return n, nil
	}

	all, err := t.store.List(ctx)
	if err != nil {
		return 0, upstream("list reset tokens", err)
	}
	n := 0
	for _, rec := range all {
		if !t.IsExpired(rec) {
			continue
		}
		if err := t.store.Delete(ctx, rec.TokenHash); err != nil {
			return n, upstream("delete reset token", err)
		}
		n++
	}
	return n, nil
}
