package handlers

import (
	"context"
	"net/http"
	"time"

	helpers "jackpoints/internal/utils/helpers"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz godoc
// @Summary Liveness
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			helpers.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
