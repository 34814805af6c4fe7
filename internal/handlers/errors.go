package handlers

import (
	"errors"
	"jackpoints/internal/services"
	helpers "jackpoints/internal/utils/helpers"
	"net/http"

	"go.uber.org/zap"
)

// writeServiceError переводит ошибки сервисов в HTTP-статусы.
// Детали upstream-ошибок клиенту не отдаём.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		helpers.Error(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrTokenInvalid), errors.Is(err, services.ErrTokenExpired):
		helpers.Error(w, http.StatusBadRequest, "invalid or expired token")
	case errors.Is(err, services.ErrDuplicateTransaction):
		helpers.Error(w, http.StatusConflict, "transaction already exists")
	case errors.Is(err, services.ErrPaymentNotCompleted):
		helpers.Error(w, http.StatusPaymentRequired, "payment is not completed")
	case errors.Is(err, services.ErrUnknownPackage):
		helpers.Error(w, http.StatusBadRequest, "unknown package")
	case errors.Is(err, services.ErrUpstream):
		log.Error("Ошибка внешней системы", zap.Error(err))
		helpers.Error(w, http.StatusBadGateway, "upstream service unavailable")
	default:
		log.Error("Внутренняя ошибка", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
	}
}
