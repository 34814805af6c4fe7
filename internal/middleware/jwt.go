package middleware

import (
	"jackpoints/internal/logger"
	"jackpoints/internal/reqctx"
	helpers "jackpoints/internal/utils/helpers"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTAuth проверяет HS256 access-токен провайдера авторизации и кладёт
// sub, email и role в контекст запроса.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.WithCtx(r.Context()).Warn("JWTAuth: отсутствует access token")
				helpers.Error(w, http.StatusUnauthorized, "missing access token")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.WithCtx(r.Context()).Warn("JWTAuth: неверный или просроченный токен", zap.Error(err))
				helpers.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			sub, _ := claims.GetSubject()
			if sub == "" {
				logger.WithCtx(r.Context()).Warn("JWTAuth: недопустимый payload", zap.Any("claims", claims))
				helpers.Error(w, http.StatusUnauthorized, "invalid token payload")
				return
			}
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			if role == "" {
				role = "user"
			}

			ctx := reqctx.WithUserID(r.Context(), sub)
			ctx = reqctx.WithEmail(ctx, email)
			ctx = reqctx.WithRole(ctx, role)

			logger.WithCtx(ctx).Debug("JWTAuth: токен валиден", zap.String("role", role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
