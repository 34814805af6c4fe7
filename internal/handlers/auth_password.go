package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jackpoints/internal/logger"
	"jackpoints/internal/services"
	helpers "jackpoints/internal/utils/helpers"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordService
}

func NewPasswordHandler(svc *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

const forgotMessage = "If the email exists, a reset link has been sent."

type forgotReq struct {
	Email string `json:"email"`
}

type validateResp struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса пароля. Ответ одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string "хранилище профилей недоступно"
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		log.Warn("Невалидный payload в Forgot")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	err := h.svc.RequestReset(r.Context(), req.Email)
	switch {
	case err == nil:
		log.Info("Запрошено восстановление пароля", zap.String("email_masked", helpers.MaskEmail(req.Email)))
	case errors.Is(err, services.ErrResetNotDelivered):
		// ответ как для неизвестного email, иначе по статусу видно, что аккаунт есть
		log.Error("Ссылка на сброс не доставлена", zap.String("email_masked", helpers.MaskEmail(req.Email)), zap.Error(err))
	case errors.Is(err, services.ErrUpstream):
		log.Error("Сбой при запросе восстановления пароля", zap.String("email_masked", helpers.MaskEmail(req.Email)), zap.Error(err))
		helpers.Error(w, http.StatusBadGateway, "service temporarily unavailable, try again later")
		return
	default:
		log.Error("Сбой при запросе восстановления пароля", zap.String("email_masked", helpers.MaskEmail(req.Email)), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]any{"message": forgotMessage})
}

// Validate godoc
// @Summary Проверка ссылки сброса пароля
// @Description Проверяет токен из письма. Просроченный токен удаляется.
// @Tags password
// @Produce json
// @Param token query string true "Токен из письма"
// @Success 200 {object} validateResp
// @Failure 502 {object} map[string]string
// @Router /api/password/validate [get]
func (h *PasswordHandler) Validate(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		helpers.JSON(w, http.StatusOK, validateResp{Valid: false, Reason: "invalid"})
		return
	}

	email, err := h.svc.ValidateToken(r.Context(), token)
	switch {
	case err == nil:
		helpers.JSON(w, http.StatusOK, validateResp{Valid: true, Email: email})
	case errors.Is(err, services.ErrTokenExpired):
		helpers.JSON(w, http.StatusOK, validateResp{Valid: false, Reason: "expired"})
	case errors.Is(err, services.ErrTokenInvalid):
		helpers.JSON(w, http.StatusOK, validateResp{Valid: false, Reason: "invalid"})
	default:
		writeServiceError(w, log, err)
	}
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по токену из письма. Токен одноразовый.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		log.Warn("Невалидный payload в Reset")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.NewPassword); err != nil {
		log.Warn("Не удалось сбросить пароль по токену", zap.Error(err))
		writeServiceError(w, log, err)
		return
	}

	log.Info("Пароль успешно сброшен")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}
