package services

import (
	"context"
	"errors"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens() (*ResetTokens, *repository.MemoryResetTokenStore, *fakeClock) {
	store := repository.NewMemoryResetTokenStore()
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tokens := NewResetTokens(store)
	tokens.now = clock.Now
	return tokens, store, clock
}

// listOnlyStore скрывает DeleteCreatedBefore, чтобы Sweep шёл через List/Delete.
type listOnlyStore struct{ ResetTokenStore }

func TestIssueThenLookup(t *testing.T) {
	ctx := context.Background()
	tokens, _, _ := newTestTokens()

	token, err := tokens.Issue(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(token) < 40 {
		t.Fatalf("токен слишком короткий: %q", token)
	}

	rec, err := tokens.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Email != "alice@example.com" {
		t.Fatalf("email = %q", rec.Email)
	}
	if tokens.IsExpired(rec) {
		t.Fatal("свежий токен помечен как просроченный")
	}
	if !rec.ExpiresAt.Equal(rec.CreatedAt.Add(time.Hour)) {
		t.Fatalf("expires = %s, created = %s", rec.ExpiresAt, rec.CreatedAt)
	}
	if rec.TokenHash == token {
		t.Fatal("токен хранится в открытом виде")
	}
}

func TestIssueProducesDistinctTokensPerEmail(t *testing.T) {
	ctx := context.Background()
	tokens, _, _ := newTestTokens()

	a, _ := tokens.Issue(ctx, "alice@example.com")
	b, _ := tokens.Issue(ctx, "alice@example.com")
	if a == b {
		t.Fatal("два запроса выдали одинаковый токен")
	}
	for _, tok := range []string{a, b} {
		if _, err := tokens.Resolve(ctx, tok); err != nil {
			t.Fatalf("оба токена должны быть валидны, получили %v", err)
		}
	}
}

func TestIsExpired(t *testing.T) {
	tokens, _, clock := newTestTokens()

	rec := &models.ResetToken{CreatedAt: clock.Now().Add(-61 * time.Minute)}
	if !tokens.IsExpired(rec) {
		t.Fatal("токен старше часа должен быть просрочен")
	}
	rec.CreatedAt = clock.Now().Add(-59 * time.Minute)
	if tokens.IsExpired(rec) {
		t.Fatal("токен младше часа не должен быть просрочен")
	}
	rec.CreatedAt = clock.Now().Add(-time.Hour)
	if tokens.IsExpired(rec) {
		t.Fatal("ровно час, ещё не просрочен")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tokens, _, _ := newTestTokens()

	token, _ := tokens.Issue(ctx, "bob@example.com")
	if err := tokens.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := tokens.Revoke(ctx, token); err != nil {
		t.Fatalf("повторный Revoke: %v", err)
	}
	if err := tokens.Revoke(ctx, "never-issued"); err != nil {
		t.Fatalf("Revoke несуществующего: %v", err)
	}
	if _, err := tokens.Lookup(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ожидался ErrTokenInvalid, получили %v", err)
	}
}

func TestResolveExpiredTokenRevokesIt(t *testing.T) {
	ctx := context.Background()
	tokens, _, clock := newTestTokens()

	token, _ := tokens.Issue(ctx, "alice@example.com")
	clock.Advance(61 * time.Minute)

	if _, err := tokens.Resolve(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ожидался ErrTokenExpired, получили %v", err)
	}
	if _, err := tokens.Lookup(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("просроченный токен не удалён: %v", err)
	}
	if _, err := tokens.Resolve(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("повторная проверка должна вернуть ErrTokenInvalid, получили %v", err)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()

	for name, wrap := range map[string]func(ResetTokenStore) ResetTokenStore{
		"bulk":     func(s ResetTokenStore) ResetTokenStore { return s },
		"listonly": func(s ResetTokenStore) ResetTokenStore { return listOnlyStore{s} },
	} {
		t.Run(name, func(t *testing.T) {
			_, store, clock := newTestTokens()
			tokens := NewResetTokens(wrap(store))
			tokens.now = clock.Now

			old, _ := tokens.Issue(ctx, "old@example.com")
			clock.Advance(90 * time.Minute)
			fresh, _ := tokens.Issue(ctx, "fresh@example.com")

			n, err := tokens.Sweep(ctx)
			if err != nil {
				t.Fatalf("Sweep: %v", err)
			}
			if n != 1 {
				t.Fatalf("удалено %d, ожидали 1", n)
			}
			if _, err := tokens.Lookup(ctx, old); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("старый токен остался: %v", err)
			}
			if _, err := tokens.Lookup(ctx, fresh); err != nil {
				t.Fatalf("свежий токен удалён: %v", err)
			}
		})
	}
}

type brokenStore struct{ ResetTokenStore }

func (brokenStore) Get(context.Context, string) (*models.ResetToken, error) {
	return nil, errors.New("connection refused")
}

func TestLookupStoreFailureIsUpstream(t *testing.T) {
	tokens := NewResetTokens(brokenStore{repository.NewMemoryResetTokenStore()})
	if _, err := tokens.Lookup(context.Background(), "x"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("ожидался ErrUpstream, получили %v", err)
	}
}
