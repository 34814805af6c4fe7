package middleware

import (
	"jackpoints/internal/reqctx"
	helpers "jackpoints/internal/utils/helpers"
	"net/http"
)

const RoleAdmin = "admin"

// IsAdmin проверяет роль из JWT, её ставит JWTAuth.
func IsAdmin(r *http.Request) bool {
	role, _ := reqctx.GetRole(r.Context())
	return role == RoleAdmin
}

// ДОЛЖЕН стоять ПОСЛЕ JWTAuth, чтобы роль уже была в контексте.
func OnlyRole(role string) func(http.Handler) http.Handler {
	return AnyRole(role)
}

func AnyRole(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{})
	for _, r := range allowedRoles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := reqctx.GetRole(r.Context())
			if !ok {
				helpers.Error(w, http.StatusForbidden, "role is unknown")
				return
			}
			if _, found := roleSet[userRole]; !found {
				helpers.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
