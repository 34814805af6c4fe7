package routes

import (
	"jackpoints/internal/handlers"
	"jackpoints/internal/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Password    *handlers.PasswordHandler
	Transaction *handlers.TransactionHandler
	Checkout    *handlers.CheckoutHandler
	Logs        *handlers.AdminLogsHandler
}

func InitRoutes(router *mux.Router, jwtSecret string, h Handlers) {
	router.Use(middleware.RequestID, middleware.Recoverer, middleware.Logging)

	router.HandleFunc("/healthz", h.Health.Healthz).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/password/forgot", h.Password.Forgot).Methods(http.MethodPost)
	api.HandleFunc("/password/validate", h.Password.Validate).Methods(http.MethodGet)
	api.HandleFunc("/password/reset", h.Password.Reset).Methods(http.MethodPost)

	api.HandleFunc("/checkout/packages", h.Checkout.Packages).Methods(http.MethodGet)
	api.HandleFunc("/checkout/webhook", h.Checkout.Webhook).Methods(http.MethodPost)

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(jwtSecret))

	protected.HandleFunc("/transactions", h.Transaction.Create).Methods(http.MethodPost)
	protected.HandleFunc("/transactions", h.Transaction.List).Methods(http.MethodGet)
	protected.HandleFunc("/transactions/balance", h.Transaction.Balance).Methods(http.MethodGet)

	protected.HandleFunc("/checkout", h.Checkout.Create).Methods(http.MethodPost)
	protected.HandleFunc("/checkout/confirm", h.Checkout.Confirm).Methods(http.MethodGet)

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole(middleware.RoleAdmin))
	admin.HandleFunc("/transactions/bulk", h.Transaction.BulkCreate).Methods(http.MethodPost)
	admin.HandleFunc("/transactions", h.Transaction.AdminList).Methods(http.MethodGet)
	if h.Logs != nil {
		admin.HandleFunc("/logs/days", h.Logs.ListDays).Methods(http.MethodGet)
		admin.HandleFunc("/logs", h.Logs.GetLogs).Methods(http.MethodGet)
	}
}
