package services

import (
	"context"
	"errors"
	"fmt"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"jackpoints/internal/utils"
	helpers "jackpoints/internal/utils/helpers"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const minPasswordLen = 8

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

type ProfileRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
}

type PasswordService struct {
	tokens      *ResetTokens
	profiles    ProfileRepo
	emailSender EmailSender
	appURL      string // фронтовый URL, ссылка вида /reset-password?token=...
}

func NewPasswordService(tokens *ResetTokens, profiles ProfileRepo, emailSender EmailSender, appURL string) *PasswordService {
	return &PasswordService{
		tokens:      tokens,
		profiles:    profiles,
		emailSender: emailSender,
		appURL:      strings.TrimRight(appURL, "/"),
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// RequestReset выпускает токен и отправляет письмо со ссылкой.
// Для неизвестного email возвращает nil (не раскрываем, есть ли такой аккаунт).
// Если ссылку не удалось выдать или отправить, токен отзывается и
// возвращается ошибка с ErrResetNotDelivered.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	log := logger.WithCtx(ctx).With(zap.String("email_masked", helpers.MaskEmail(email)))
	log.Info("Запрос на сброс пароля")

	if _, err := s.profiles.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Профиль не найден при запросе сброса")
			return nil
		}
		log.Error("Ошибка поиска профиля при запросе сброса", zap.Error(err))
		return upstream("find profile", err)
	}

	token, err := s.tokens.Issue(ctx, email)
	if err != nil {
		log.Error("Ошибка выпуска токена сброса", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrResetNotDelivered, err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))
	if err := s.emailSender.SendPasswordReset(ctx, email, resetLink); err != nil {
		log.Error("Ошибка отправки письма для сброса пароля", zap.Error(err))
		if rerr := s.tokens.Revoke(context.WithoutCancel(ctx), token); rerr != nil {
			log.Error("Не удалось отозвать неотправленный токен", zap.Error(rerr))
		}
		return fmt.Errorf("%w: %w", ErrResetNotDelivered, upstream("send reset email", err))
	}

	log.Info("Письмо со ссылкой на сброс пароля отправлено")
	return nil
}

// ValidateToken проверяет ссылку из письма и возвращает email.
func (s *PasswordService) ValidateToken(ctx context.Context, token string) (string, error) {
	return s.tokens.Resolve(ctx, token)
}

// ResetPassword проверяет токен, меняет пароль и гасит токен.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.WithCtx(ctx)
	log.Info("Попытка сброса пароля по токену")

	if len(newPassword) < minPasswordLen {
		log.Warn("Слишком короткий новый пароль")
		return &ValidationError{Field: "new_password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}

	email, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		log.Warn("Неверный или просроченный токен при сбросе пароля", zap.Error(err))
		return err
	}

	pwHash, err := utils.HashPassword(newPassword)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return err
	}

	if err := s.profiles.UpdatePasswordByEmail(ctx, email, pwHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// профиль удалён после выдачи токена
			_ = s.tokens.Revoke(ctx, token)
			return ErrTokenInvalid
		}
		log.Error("Ошибка обновления пароля", zap.String("email_masked", helpers.MaskEmail(email)), zap.Error(err))
		return upstream("update password", err)
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		log.Warn("Не удалось отозвать использованный токен сброса", zap.String("email_masked", helpers.MaskEmail(email)), zap.Error(err))
	}

	log.Info("Пароль успешно сброшен", zap.String("email_masked", helpers.MaskEmail(email)))
	return nil
}
