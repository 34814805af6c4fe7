package queue

import (
	"context"
	"errors"
	"jackpoints/internal/models"
	"testing"
	"time"
)

func TestPublisher_DeliversInOrder(t *testing.T) {
	got := make(chan string, 3)
	p := newPublisher("ledger", 8, func(_ context.Context, m message) error {
		got <- m.id
		return nil
	})
	p.start()
	defer p.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := p.PublishTransaction(context.Background(), &models.Transaction{ID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		select {
		case id := <-got:
			if id != want {
				t.Fatalf("порядок: %s, ожидали %s", id, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("событие %s не доставлено", want)
		}
	}
}

func TestPublisher_FullBufferDoesNotBlock(t *testing.T) {
	// воркер не запущен, буфер никто не разбирает
	p := newPublisher("ledger", 2, func(context.Context, message) error { return nil })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := p.PublishTransaction(ctx, &models.Transaction{ID: "t"}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- p.PublishTransaction(ctx, &models.Transaction{ID: "overflow"}) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("ожидали ErrQueueFull, получили %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("PublishTransaction заблокировался на полном буфере")
	}
}

func TestPublisher_BacksOffAfterFailure(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	calls := 0
	fail := true
	p := newPublisher("ledger", 1, func(context.Context, message) error {
		calls++
		if fail {
			return errors.New("connection refused")
		}
		return nil
	})
	p.now = func() time.Time { return now }

	p.deliver(message{id: "1"})
	if calls != 1 || p.backoff != minBackoff {
		t.Fatalf("после первой ошибки: calls=%d backoff=%v", calls, p.backoff)
	}

	// во время паузы брокер не трогаем
	p.deliver(message{id: "2"})
	if calls != 1 {
		t.Fatalf("send вызван во время паузы: calls=%d", calls)
	}

	now = now.Add(minBackoff)
	p.deliver(message{id: "3"})
	if calls != 2 || p.backoff != 2*minBackoff {
		t.Fatalf("повторная ошибка: calls=%d backoff=%v", calls, p.backoff)
	}

	for i := 0; i < 10; i++ {
		now = now.Add(p.backoff)
		p.deliver(message{id: "x"})
	}
	if p.backoff != maxBackoff {
		t.Fatalf("backoff должен упереться в %v, получили %v", maxBackoff, p.backoff)
	}

	fail = false
	now = now.Add(p.backoff)
	p.deliver(message{id: "ok"})
	if p.backoff != 0 || !p.retryAt.IsZero() {
		t.Fatalf("успех должен сбросить паузу: backoff=%v retryAt=%v", p.backoff, p.retryAt)
	}
}

func TestPublisher_Close(t *testing.T) {
	p := newPublisher("ledger", 4, func(context.Context, message) error { return nil })
	p.start()
	p.Close()
	p.Close()

	err := p.PublishTransaction(context.Background(), &models.Transaction{ID: "late"})
	if !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("ожидали ErrPublisherClosed, получили %v", err)
	}
}
