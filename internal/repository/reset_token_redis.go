package repository

import (
	"context"
	"encoding/json"
	"errors"
	"jackpoints/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResetTokenStore хранит токен как JSON под ключом prefix+hash.
// Redis сам удаляет ключ через retention; retention берётся больше TTL токена,
// чтобы просроченный токен ещё можно было найти и отличить от несуществующего.
type RedisResetTokenStore struct {
	rdb       redis.UniversalClient
	prefix    string
	retention time.Duration
}

func NewRedisResetTokenStore(rdb redis.UniversalClient, prefix string, retention time.Duration) *RedisResetTokenStore {
	return &RedisResetTokenStore{rdb: rdb, prefix: prefix, retention: retention}
}

func (s *RedisResetTokenStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func (s *RedisResetTokenStore) Get(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	data, err := s.rdb.Get(ctx, s.key(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var t models.ResetToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RedisResetTokenStore) Set(ctx context.Context, token *models.ResetToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(token.TokenHash), data, s.retention).Err()
}

func (s *RedisResetTokenStore) Delete(ctx context.Context, tokenHash string) error {
	return s.rdb.Del(ctx, s.key(tokenHash)).Err()
}

func (s *RedisResetTokenStore) List(ctx context.Context) ([]*models.ResetToken, error) {
	var out []*models.ResetToken

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// ключ истёк между SCAN и GET
			continue
		}
		if err != nil {
			return nil, err
		}
		var t models.ResetToken
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
