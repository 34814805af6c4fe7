package services

import (
	"context"
	"errors"
	"fmt"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"jackpoints/internal/utils"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProfiles struct {
	hashes map[string]string
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	if _, ok := f.hashes[email]; !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Profile{ID: "p-" + email, Email: email}, nil
}

func (f *fakeProfiles) UpdatePasswordByEmail(_ context.Context, email, hash string) error {
	if _, ok := f.hashes[email]; !ok {
		return repository.ErrNotFound
	}
	f.hashes[email] = hash
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _ string, link string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, link)
	return nil
}

func newTestPasswordService() (*PasswordService, *fakeProfiles, *fakeMailer, *repository.MemoryResetTokenStore, *fakeClock) {
	tokens, store, clock := newTestTokens()
	profiles := &fakeProfiles{hashes: map[string]string{"alice@example.com": "old"}}
	mailer := &fakeMailer{}
	svc := NewPasswordService(tokens, profiles, mailer, "https://jack.example.com/")
	return svc, profiles, mailer, store, clock
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("плохая ссылка %q: %v", link, err)
	}
	if u.Path != "/reset-password" || u.Host != "jack.example.com" {
		t.Fatalf("неожиданная ссылка %q", link)
	}
	return u.Query().Get("token")
}

func TestRequestReset_SendsWorkingLink(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, _, _ := newTestPasswordService()

	if err := svc.RequestReset(ctx, "  Alice@Example.com "); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("отправлено писем: %d", len(mailer.sent))
	}

	email, err := svc.ValidateToken(ctx, tokenFromLink(t, mailer.sent[0]))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, store, _ := newTestPasswordService()

	if err := svc.RequestReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("для неизвестного email ожидался nil, получили %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("письмо ушло на неизвестный адрес")
	}
	if all, _ := store.List(ctx); len(all) != 0 {
		t.Fatalf("выпущено токенов: %d", len(all))
	}
}

func TestRequestReset_DeliveryFailureRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, store, _ := newTestPasswordService()
	mailer.err = errors.New("smtp: 421 service not available")

	err := svc.RequestReset(ctx, "alice@example.com")
	if !errors.Is(err, ErrResetNotDelivered) || !errors.Is(err, ErrUpstream) {
		t.Fatalf("ожидались ErrResetNotDelivered и ErrUpstream, получили %v", err)
	}
	if all, _ := store.List(ctx); len(all) != 0 {
		t.Fatalf("неотправленный токен не отозван, осталось %d", len(all))
	}
}

func TestPasswordService_LogsMaskedEmail(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = prev }()

	ctx := context.Background()
	svc, _, mailer, _, _ := newTestPasswordService()

	_ = svc.RequestReset(ctx, "nobody@example.com")
	if err := svc.RequestReset(ctx, "Alice@Example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if err := svc.ResetPassword(ctx, tokenFromLink(t, mailer.sent[0]), "new-password-1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	mailer.err = errors.New("smtp down")
	_ = svc.RequestReset(ctx, "alice@example.com")

	if logs.Len() == 0 {
		t.Fatal("сервис ничего не залогировал")
	}
	masked := 0
	for _, e := range logs.All() {
		for k, v := range e.ContextMap() {
			str := strings.ToLower(fmt.Sprint(v))
			if strings.Contains(str, "alice@") || strings.Contains(str, "nobody@") {
				t.Fatalf("%q: поле %s содержит email целиком: %v", e.Message, k, v)
			}
			if k == "email_masked" {
				masked++
			}
		}
	}
	if masked == 0 {
		t.Fatal("нет ни одного поля email_masked")
	}
	if n := logs.FilterField(zap.String("email_masked", "a***@example.com")).Len(); n == 0 {
		t.Fatal("ожидали a***@example.com в логах")
	}
}

func TestResetPassword_ConsumesToken(t *testing.T) {
	ctx := context.Background()
	svc, profiles, mailer, _, _ := newTestPasswordService()

	_ = svc.RequestReset(ctx, "alice@example.com")
	token := tokenFromLink(t, mailer.sent[0])

	if err := svc.ResetPassword(ctx, token, "n3w-passw0rd"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if !utils.CheckPasswordHash("n3w-passw0rd", profiles.hashes["alice@example.com"]) {
		t.Fatal("пароль не обновлён")
	}

	if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("токен должен быть одноразовым, получили %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "another-pass"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("повторный сброс должен упасть с ErrTokenInvalid, получили %v", err)
	}
}

func TestResetPassword_ShortPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, _, _ := newTestPasswordService()

	_ = svc.RequestReset(ctx, "alice@example.com")
	token := tokenFromLink(t, mailer.sent[0])

	var verr *ValidationError
	if err := svc.ResetPassword(ctx, token, "short"); !errors.As(err, &verr) {
		t.Fatalf("ожидался ValidationError, получили %v", err)
	}
	// токен не должен сгореть от невалидного пароля
	if _, err := svc.ValidateToken(ctx, token); err != nil {
		t.Fatalf("токен пропал после отказа по паролю: %v", err)
	}
}

func TestValidateToken_After61Minutes(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, _, clock := newTestPasswordService()

	_ = svc.RequestReset(ctx, "alice@example.com")
	token := tokenFromLink(t, mailer.sent[0])

	clock.Advance(61 * time.Minute)

	if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ожидался ErrTokenExpired, получили %v", err)
	}
	if _, err := svc.tokens.Lookup(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("просроченный токен остался в хранилище: %v", err)
	}
}
