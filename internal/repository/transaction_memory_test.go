package repository

import (
	"context"
	"errors"
	"jackpoints/internal/models"
	"testing"
)

func memTx(id, user string, ts int64, typ models.TransactionType, amount int64) *models.Transaction {
	return &models.Transaction{ID: id, UserID: user, UserEmail: user + "@example.com", Amount: amount, Description: "test", Timestamp: ts, Type: typ}
}

func TestMemoryTransactionRepository_ListOrderFilterPage(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTransactionRepository()

	_ = r.Insert(ctx, memTx("a", "u1", 100, models.TransactionEarn, 10))
	_ = r.Insert(ctx, memTx("b", "u1", 300, models.TransactionSpend, -5))
	_ = r.Insert(ctx, memTx("c", "u2", 200, models.TransactionEarn, 7))
	_ = r.Insert(ctx, memTx("d", "u1", 200, models.TransactionEarn, 3))

	got, err := r.List(ctx, models.TransactionFilter{UserID: "u1", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"b", "d", "a"}
	if len(got) != len(want) {
		t.Fatalf("получили %d записей, ожидали %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("позиция %d: %s, ожидали %s", i, got[i].ID, id)
		}
	}

	got, _ = r.List(ctx, models.TransactionFilter{UserID: "u1", Type: models.TransactionEarn, Page: 2, Limit: 1})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("вторая страница фильтра earn: %+v", got)
	}

	got, _ = r.List(ctx, models.TransactionFilter{Page: 5, Limit: 10})
	if len(got) != 0 {
		t.Fatalf("страница за пределами должна быть пустой, получили %d", len(got))
	}

	if bal, _ := r.Balance(ctx, "u1"); bal != 8 {
		t.Fatalf("баланс u1 = %d, ожидали 8", bal)
	}
}

func TestMemoryTransactionRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTransactionRepository()

	if err := r.Insert(ctx, memTx("a", "u1", 1, models.TransactionEarn, 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := r.Insert(ctx, memTx("a", "u1", 2, models.TransactionEarn, 1)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("ожидался ErrDuplicate, получили %v", err)
	}

	n, err := r.InsertBatch(ctx, []*models.Transaction{
		memTx("b", "u1", 1, models.TransactionEarn, 1),
		memTx("a", "u1", 1, models.TransactionEarn, 1),
	})
	if !errors.Is(err, ErrDuplicate) || n != 0 {
		t.Fatalf("InsertBatch = %d, %v", n, err)
	}
	if got, _ := r.List(ctx, models.TransactionFilter{Page: 1, Limit: 10}); len(got) != 1 {
		t.Fatalf("пачка с дубликатом записалась частично: %d", len(got))
	}
}
