package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"jackpoints/internal/reqctx"
	"jackpoints/internal/services"
	helpers "jackpoints/internal/utils/helpers"

	"go.uber.org/zap"
)

type CheckoutHandler struct {
	svc *services.CheckoutService
}

func NewCheckoutHandler(svc *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type createCheckoutReq struct {
	Package string `json:"package"`
}

type fulfillResp struct {
	Transaction      *models.Transaction `json:"transaction,omitempty"`
	AlreadyProcessed bool                `json:"alreadyProcessed"`
}

// Packages godoc
// @Summary Пакеты JackPoints
// @Tags checkout
// @Produce json
// @Success 200 {array} models.PointPackage
// @Router /api/checkout/packages [get]
func (h *CheckoutHandler) Packages(w http.ResponseWriter, r *http.Request) {
	helpers.JSON(w, http.StatusOK, h.svc.Packages())
}

// Create godoc
// @Summary Создать оплату пакета JackPoints
// @Tags checkout
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body createCheckoutReq true "ID пакета: starter, high, vault"
// @Success 200 {object} map[string]string "url страницы оплаты"
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/checkout [post]
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req createCheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Package) == "" {
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	uid, _ := reqctx.GetUserID(r.Context())
	email, _ := reqctx.GetEmail(r.Context())

	url, err := h.svc.CreateCheckout(r.Context(), services.Buyer{UserID: uid, Email: email}, strings.TrimSpace(req.Package))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// Confirm godoc
// @Summary Подтвердить оплату после редиректа
// @Description Повторный вызов для той же сессии ничего не начисляет.
// @Tags checkout
// @Security ApiKeyAuth
// @Produce json
// @Param session_id query string true "ID сессии оплаты"
// @Success 200 {object} fulfillResp
// @Failure 402 {object} map[string]string "оплата не завершена"
// @Failure 502 {object} map[string]string
// @Router /api/checkout/confirm [get]
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		helpers.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	tx, already, err := h.svc.Fulfill(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusOK, fulfillResp{Transaction: tx, AlreadyProcessed: already})
}

type checkoutWebhook struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook godoc
// @Summary Webhook платёжного провайдера
// @Description Телу не доверяем: сессия перечитывается у провайдера по id.
// @Tags checkout
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string "провайдер повторит доставку"
// @Router /api/checkout/webhook [post]
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var event checkoutWebhook
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error("Ошибка парсинга webhook", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	log.Info("Webhook получен", zap.String("type", event.Type), zap.String("session_id", event.Data.Object.ID))

	if event.Type != "checkout.session.completed" {
		helpers.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if event.Data.Object.ID == "" {
		helpers.Error(w, http.StatusBadRequest, "missing session id")
		return
	}

	_, already, err := h.svc.Fulfill(r.Context(), event.Data.Object.ID)
	switch {
	case errors.Is(err, services.ErrPaymentNotCompleted):
		helpers.JSON(w, http.StatusOK, map[string]string{"status": "pending"})
	case err != nil:
		log.Error("Не удалось обработать webhook", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
	case already:
		helpers.JSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
	default:
		helpers.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
