package repository

import (
	"context"
	"jackpoints/internal/models"
	"sync"
	"time"
)

// MemoryResetTokenStore держит токены в памяти процесса. Живёт от старта до остановки,
// ничего не переживает рестарт.
type MemoryResetTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]models.ResetToken
}

func NewMemoryResetTokenStore() *MemoryResetTokenStore {
	return &MemoryResetTokenStore{tokens: make(map[string]models.ResetToken)}
}

func (s *MemoryResetTokenStore) Get(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryResetTokenStore) Set(_ context.Context, token *models.ResetToken) error {
	s.mu.Lock()
	s.tokens[token.TokenHash] = *token
	s.mu.Unlock()
	return nil
}

func (s *MemoryResetTokenStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	delete(s.tokens, tokenHash)
	s.mu.Unlock()
	return nil
}

func (s *MemoryResetTokenStore) List(_ context.Context) ([]*models.ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ResetToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		t := t
		out = append(out, &t)
	}
	return out, nil
}

func (s *MemoryResetTokenStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, t := range s.tokens {
		if t.CreatedAt.Before(cutoff) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}
