package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"jackpoints/internal/logger"
	"jackpoints/internal/middleware"
	"jackpoints/internal/models"
	"jackpoints/internal/reqctx"
	"jackpoints/internal/services"
	helpers "jackpoints/internal/utils/helpers"

	"go.uber.org/zap"
)

// maxBulkBody ограничивает тело пакетной записи.
const maxBulkBody = 8 << 20

type TransactionHandler struct {
	ledger *services.Ledger
}

func NewTransactionHandler(ledger *services.Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type bulkReq struct {
	Transactions []*models.NewTransaction `json:"transactions"`
}

type balanceResp struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

// Create godoc
// @Summary Добавить транзакцию
// @Description Пользователь может добавлять только свои транзакции и не может использовать type=admin.
// @Tags transactions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.NewTransaction true "Транзакция"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/transactions [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var in models.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn("Невалидный JSON транзакции", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !middleware.IsAdmin(r) {
		uid, _ := reqctx.GetUserID(r.Context())
		if in.UserID == "" {
			in.UserID = uid
		}
		if in.UserID != uid {
			log.Warn("Попытка записи в чужой леджер", zap.String("target_user_id", in.UserID))
			helpers.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		if in.Type == models.TransactionAdmin {
			log.Warn("Попытка записи admin-транзакции без прав")
			helpers.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		if in.UserEmail == "" {
			in.UserEmail, _ = reqctx.GetEmail(r.Context())
		}
	}

	tx, err := h.ledger.Append(r.Context(), &in)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusCreated, tx)
}

// List godoc
// @Summary История транзакций
// @Description Сначала новые. Пользователь видит только свои транзакции.
// @Tags transactions
// @Security ApiKeyAuth
// @Produce json
// @Param userId query string false "ID пользователя (по умолчанию текущий)"
// @Param type query string false "earn, spend, bonus, event, admin"
// @Param page query int false "Страница (с 1)"
// @Param limit query int false "Размер страницы (по умолч. 20, макс. 100)"
// @Success 200 {object} models.TransactionPage
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/transactions [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	if !middleware.IsAdmin(r) {
		uid, _ := reqctx.GetUserID(r.Context())
		if f.UserID != "" && f.UserID != uid {
			helpers.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		f.UserID = uid
	}

	h.query(w, r, log, f)
}

// AdminList godoc
// @Summary Транзакции всех пользователей
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param userId query string false "ID пользователя"
// @Param type query string false "earn, spend, bonus, event, admin"
// @Param page query int false "Страница (с 1)"
// @Param limit query int false "Размер страницы (по умолч. 20, макс. 100)"
// @Success 200 {object} models.TransactionPage
// @Failure 403 {object} map[string]string
// @Router /api/admin/transactions [get]
func (h *TransactionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	h.query(w, r, logger.WithCtx(r.Context()), f)
}

func (h *TransactionHandler) query(w http.ResponseWriter, r *http.Request, log *zap.Logger, f models.TransactionFilter) {
	page, err := h.ledger.Query(r.Context(), f)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusOK, page)
}

func parseFilter(w http.ResponseWriter, r *http.Request) (models.TransactionFilter, bool) {
	q := r.URL.Query()
	f := models.TransactionFilter{
		UserID: strings.TrimSpace(q.Get("userId")),
		Type:   models.TransactionType(strings.TrimSpace(q.Get("type"))),
	}

	for name, dst := range map[string]*int{"page": &f.Page, "limit": &f.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			helpers.Error(w, http.StatusBadRequest, name+": must be a positive integer")
			return f, false
		}
		*dst = n
	}
	return f, true
}

// Balance godoc
// @Summary Баланс JackPoints
// @Tags transactions
// @Security ApiKeyAuth
// @Produce json
// @Param userId query string false "ID пользователя (только для админа)"
// @Success 200 {object} balanceResp
// @Failure 403 {object} map[string]string
// @Router /api/transactions/balance [get]
func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	uid, _ := reqctx.GetUserID(r.Context())
	target := strings.TrimSpace(r.URL.Query().Get("userId"))
	if target == "" {
		target = uid
	}
	if target != uid && !middleware.IsAdmin(r) {
		helpers.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	sum, err := h.ledger.Balance(r.Context(), target)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusOK, balanceResp{UserID: target, Balance: sum})
}

// BulkCreate godoc
// @Summary Пакетная запись транзакций
// @Description Пачки по LEDGER_BATCH_SIZE пишутся последовательно; упавшая пачка целиком идёт в errorCount.
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body bulkReq true "Транзакции"
// @Success 200 {object} models.BatchResult
// @Failure 400 {object} map[string]string
// @Router /api/admin/transactions/bulk [post]
func (h *TransactionHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req bulkReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBulkBody)).Decode(&req); err != nil {
		log.Warn("Невалидный JSON пакетной записи", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := h.ledger.AppendBatch(r.Context(), req.Transactions)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	helpers.JSON(w, http.StatusOK, res)
}
