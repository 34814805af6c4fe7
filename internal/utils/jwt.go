package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken выпускает HS256 access-токен в формате провайдера авторизации:
// sub: id профиля, email и role берутся из профиля.
func GenerateToken(secret, userID, email, role string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   now.Add(duration).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
