package services

import (
	"context"
	"fmt"
	"jackpoints/internal/config"
	helpers "jackpoints/internal/utils/helpers"
	"net/smtp"
	"strings"
)

type EmailService struct {
	auth smtp.Auth
	from string
	host string
	port string
	// send подменяется в тестах
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth: auth,
		from: cfg.MailFrom,
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		send: smtp.SendMail,
	}
}

func (s *EmailService) buildMessage(to []string, subject, contentType, body string) []byte {
	return []byte("From: " + s.from + "\r\n" +
		"To: " + strings.Join(to, ", ") + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "; charset=\"utf-8\"\r\n\r\n" +
		body)
}

func (s *EmailService) Send(to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, s.auth, s.from, to, s.buildMessage(to, subject, "text/plain", body))
}

func (s *EmailService) SendHTML(to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, s.auth, s.from, to, s.buildMessage(to, subject, "text/html", body))
}

// SendPasswordReset отправляет письмо синхронно: вызывающему нужен результат доставки.
func (s *EmailService) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.host == "" {
		return fmt.Errorf("smtp is not configured")
	}
	html := helpers.BuildPasswordResetHTML(resetLink, int(ResetTokenTTL.Minutes()))
	return s.SendHTML([]string{to}, "Восстановление пароля JackPoints", html)
}
