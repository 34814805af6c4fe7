package models

import "time"

// ResetToken хранится по SHA-256 от токена; сам токен уходит только в письмо.
type ResetToken struct {
	TokenHash string    `json:"token_hash"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
