package repository

import (
	"context"
	"jackpoints/internal/models"
	"sort"
	"sync"
)

// MemoryTransactionRepository: леджер в памяти для тестов и LEDGER_STORE=memory.
type MemoryTransactionRepository struct {
	mu  sync.RWMutex
	txs []models.Transaction
	ids map[string]struct{}
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{ids: make(map[string]struct{})}
}

func (r *MemoryTransactionRepository) Insert(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[tx.ID]; ok {
		return ErrDuplicate
	}
	r.ids[tx.ID] = struct{}{}
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *MemoryTransactionRepository) InsertBatch(_ context.Context, txs []*models.Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if _, ok := r.ids[tx.ID]; ok {
			return 0, ErrDuplicate
		}
		if _, ok := seen[tx.ID]; ok {
			return 0, ErrDuplicate
		}
		seen[tx.ID] = struct{}{}
	}
	for _, tx := range txs {
		r.ids[tx.ID] = struct{}{}
		r.txs = append(r.txs, *tx)
	}
	return len(txs), nil
}

func (r *MemoryTransactionRepository) List(_ context.Context, f models.TransactionFilter) ([]*models.Transaction, error) {
	r.mu.RLock()
	matched := make([]models.Transaction, 0, len(r.txs))
	for _, t := range r.txs {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		matched = append(matched, t)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp > matched[j].Timestamp
		}
		return matched[i].ID > matched[j].ID
	})

	offset := (f.Page - 1) * f.Limit
	if offset < 0 || offset >= len(matched) {
		return []*models.Transaction{}, nil
	}
	end := offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*models.Transaction, 0, end-offset)
	for i := offset; i < end; i++ {
		t := matched[i]
		out = append(out, &t)
	}
	return out, nil
}

func (r *MemoryTransactionRepository) Balance(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum int64
	for _, t := range r.txs {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum, nil
}
