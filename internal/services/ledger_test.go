package services

import (
	"context"
	"errors"
	"fmt"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"math"
	"sync"
	"testing"
	"time"
)

// flakyRepo падает на заданном по счёту вызове InsertBatch.
type flakyRepo struct {
	*repository.MemoryTransactionRepository
	failBatch int
	calls     int
	listErr   error
}

func (r *flakyRepo) InsertBatch(ctx context.Context, txs []*models.Transaction) (int, error) {
	r.calls++
	if r.calls == r.failBatch {
		return 0, errors.New("payload too large")
	}
	return r.MemoryTransactionRepository.InsertBatch(ctx, txs)
}

func (r *flakyRepo) List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryTransactionRepository.List(ctx, f)
}

type recordingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, tx *models.Transaction) error {
	p.mu.Lock()
	p.ids = append(p.ids, tx.ID)
	p.mu.Unlock()
	return nil
}

func i64(v int64) *int64 { return &v }

func newTx(user string, amount int64, ts *int64) *models.NewTransaction {
	return &models.NewTransaction{
		UserID:      user,
		UserEmail:   user + "@example.com",
		Amount:      &amount,
		Description: "Daily wheel spin",
		Timestamp:   ts,
		Type:        models.TransactionEarn,
	}
}

func newTestLedger() (*Ledger, *flakyRepo, *recordingPublisher) {
	repo := &flakyRepo{MemoryTransactionRepository: repository.NewMemoryTransactionRepository()}
	pub := &recordingPublisher{}
	l := NewLedger(repo, pub, DefaultBatchSize)
	l.now = func() time.Time { return time.UnixMilli(1_760_000_000_000) }
	return l, repo, pub
}

func TestAppend_MissingAmount(t *testing.T) {
	l, _, _ := newTestLedger()

	in := newTx("u1", 0, nil)
	in.Amount = nil

	_, err := l.Append(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ожидался ValidationError, получили %v", err)
	}
	if verr.Field != "amount" {
		t.Fatalf("поле = %q, ожидали amount", verr.Field)
	}
}

func TestAppend_RequiredFields(t *testing.T) {
	l, _, _ := newTestLedger()

	cases := map[string]func(*models.NewTransaction){
		"userId":      func(in *models.NewTransaction) { in.UserID = "" },
		"userEmail":   func(in *models.NewTransaction) { in.UserEmail = "" },
		"description": func(in *models.NewTransaction) { in.Description = "" },
		"type":        func(in *models.NewTransaction) { in.Type = "" },
	}
	for field, mutate := range cases {
		in := newTx("u1", 5, nil)
		mutate(in)
		_, err := l.Append(context.Background(), in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: ожидался ValidationError по полю, получили %v", field, err)
		}
	}

	in := newTx("u1", 5, nil)
	in.Type = "jackpot"
	if _, err := l.Append(context.Background(), in); err == nil {
		t.Fatal("неизвестный type должен отклоняться")
	}
}

func TestAppend_ZeroAmountIsPresent(t *testing.T) {
	l, _, _ := newTestLedger()
	if _, err := l.Append(context.Background(), newTx("u1", 0, nil)); err != nil {
		t.Fatalf("amount=0 передан и должен приниматься: %v", err)
	}
}

func TestAppend_Timestamp(t *testing.T) {
	ctx := context.Background()
	l, _, pub := newTestLedger()

	supplied, err := l.Append(ctx, newTx("u1", 10, i64(12345)))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if supplied.Timestamp != 12345 {
		t.Fatalf("timestamp = %d, ожидали 12345", supplied.Timestamp)
	}
	if supplied.ID == "" {
		t.Fatal("id не назначен")
	}

	defaulted, err := l.Append(ctx, newTx("u1", -3, nil))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if defaulted.Timestamp != 1_760_000_000_000 {
		t.Fatalf("timestamp = %d, ожидали текущее время", defaulted.Timestamp)
	}
	if defaulted.Amount != -3 {
		t.Fatalf("amount = %d", defaulted.Amount)
	}

	if len(pub.ids) != 2 {
		t.Fatalf("опубликовано событий: %d", len(pub.ids))
	}
}

func TestAppend_DuplicateID(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	in := newTx("u1", 10, nil)
	in.ID = "checkout_cs_1"
	if _, err := l.Append(ctx, in); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := l.Append(ctx, in); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("ожидался ErrDuplicateTransaction, получили %v", err)
	}
}

func TestAppendBatch_PartialFailure(t *testing.T) {
	ctx := context.Background()
	l, repo, pub := newTestLedger()
	repo.failBatch = 2

	in := make([]*models.NewTransaction, 120)
	for i := range in {
		in[i] = newTx(fmt.Sprintf("u%d", i%7), int64(i), i64(int64(i+1)))
	}

	res, err := l.AppendBatch(ctx, in)
	if err != nil {
		t.Fatalf("AppendBatch не должен падать при частичной ошибке: %v", err)
	}
	if res.InsertedCount != 70 || res.ErrorCount != 50 {
		t.Fatalf("получили inserted=%d errors=%d, ожидали 70/50", res.InsertedCount, res.ErrorCount)
	}
	if repo.calls != 3 {
		t.Fatalf("вызовов InsertBatch: %d, ожидали 3", repo.calls)
	}
	if len(pub.ids) != 70 {
		t.Fatalf("опубликовано %d событий, ожидали 70", len(pub.ids))
	}
}

func TestAppendBatch_InvalidItemFailsItsBatch(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()
	l.batchSize = 2

	bad := newTx("u2", 1, nil)
	bad.Description = ""
	in := []*models.NewTransaction{newTx("u1", 1, nil), bad, newTx("u3", 1, nil)}

	res, err := l.AppendBatch(ctx, in)
	if err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}
	if res.InsertedCount != 1 || res.ErrorCount != 2 {
		t.Fatalf("получили inserted=%d errors=%d, ожидали 1/2", res.InsertedCount, res.ErrorCount)
	}
}

func TestAppendBatch_Empty(t *testing.T) {
	l, _, _ := newTestLedger()
	var verr *ValidationError
	if _, err := l.AppendBatch(context.Background(), nil); !errors.As(err, &verr) {
		t.Fatalf("ожидался ValidationError, получили %v", err)
	}
}

func TestQuery_OrderAndPaging(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	for _, ts := range []int64{200, 100, 300} {
		if _, err := l.Append(ctx, newTx("u1", 1, i64(ts))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	_, _ = l.Append(ctx, newTx("u2", 1, i64(400)))

	page, err := l.Query(ctx, models.TransactionFilter{UserID: "u1", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Transactions) != 2 || page.Transactions[0].Timestamp != 300 || page.Transactions[1].Timestamp != 200 {
		t.Fatalf("первая страница: %+v", page.Transactions)
	}
	if !page.Meta.HasMore {
		t.Fatal("hasMore должен быть true на полной странице")
	}

	page, err = l.Query(ctx, models.TransactionFilter{UserID: "u1", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].Timestamp != 100 {
		t.Fatalf("вторая страница: %+v", page.Transactions)
	}
	if page.Meta.HasMore {
		t.Fatal("hasMore должен быть false на неполной странице")
	}
}

func TestQuery_FiltersAndDefaults(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	_, _ = l.Append(ctx, newTx("u1", 5, i64(1)))
	spend := newTx("u1", -5, i64(2))
	spend.Type = models.TransactionSpend
	_, _ = l.Append(ctx, spend)
	_, _ = l.Append(ctx, newTx("u2", 5, i64(3)))

	page, err := l.Query(ctx, models.TransactionFilter{UserID: "u1", Type: models.TransactionSpend})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].Amount != -5 {
		t.Fatalf("фильтр userId+type: %+v", page.Transactions)
	}
	if page.Meta.Page != 1 || page.Meta.Limit != 20 {
		t.Fatalf("дефолты пагинации: %+v", page.Meta)
	}

	page, _ = l.Query(ctx, models.TransactionFilter{Type: models.TransactionEarn, Limit: 1000})
	if page.Meta.Limit != 100 || len(page.Transactions) != 2 {
		t.Fatalf("фильтр по type / лимит: %+v", page)
	}

	if _, err := l.Query(ctx, models.TransactionFilter{Type: "jackpot"}); err == nil {
		t.Fatal("неизвестный type в фильтре должен отклоняться")
	}
}

func TestQuery_PageOutOfRange(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()
	_, _ = l.Append(ctx, newTx("u1", 1, i64(100)))

	for _, page := range []int{maxPage + 1, 4611686018427387905, math.MaxInt} {
		_, err := l.Query(ctx, models.TransactionFilter{UserID: "u1", Page: page, Limit: 4})
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "page" {
			t.Fatalf("page=%d: ожидали ValidationError по page, получили %v", page, err)
		}
	}

	page, err := l.Query(ctx, models.TransactionFilter{UserID: "u1", Page: maxPage, Limit: maxPageLimit})
	if err != nil {
		t.Fatalf("последняя допустимая страница: %v", err)
	}
	if len(page.Transactions) != 0 || page.Meta.HasMore {
		t.Fatalf("далёкая страница должна быть пустой: %+v", page)
	}
}

func TestQuery_StoreFailureIsUpstream(t *testing.T) {
	l, repo, _ := newTestLedger()
	repo.listErr = errors.New("connection reset")

	if _, err := l.Query(context.Background(), models.TransactionFilter{}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("ожидался ErrUpstream, получили %v", err)
	}
}

func TestBalance(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	_, _ = l.Append(ctx, newTx("u1", 100, nil))
	_, _ = l.Append(ctx, newTx("u1", -30, nil))

	bal, err := l.Balance(ctx, "u1")
	if err != nil || bal != 70 {
		t.Fatalf("Balance = %d, %v", bal, err)
	}
}
