package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var pointPackages = map[string]models.PointPackage{
	"starter": {ID: "starter", Name: "Starter Stack", Points: 1000, PriceCents: 499},
	"high":    {ID: "high", Name: "High Roller", Points: 5500, PriceCents: 1999},
	"vault":   {ID: "vault", Name: "Jackpot Vault", Points: 15000, PriceCents: 4999},
}

// Buyer берётся из JWT.
type Buyer struct {
	UserID string
	Email  string
}

// CheckoutService работает с hosted checkout платёжного провайдера:
// создаёт сессию оплаты и по её id подтверждает оплату и начисляет JackPoints.
type CheckoutService struct {
	BaseURL    string
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
	HTTPClient *http.Client

	ledger *Ledger
}

func NewCheckoutService(baseURL, secretKey, successURL, cancelURL, currency string, ledger *Ledger) *CheckoutService {
	return &CheckoutService{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Currency:   currency,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		ledger:     ledger,
	}
}

type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
}

type createSessionRequest struct {
	LineItems  []LineItem        `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

// Packages возвращает пакеты JackPoints по возрастанию цены.
func (s *CheckoutService) Packages() []models.PointPackage {
	out := make([]models.PointPackage, 0, len(pointPackages))
	for _, p := range pointPackages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out
}

func (s *CheckoutService) do(ctx context.Context, method, path string, body any, idempotencyKey string) (*models.CheckoutSession, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.SecretKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, upstream("checkout request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, upstream("checkout request", fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	var sess models.CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, upstream("decode checkout session", err)
	}
	return &sess, nil
}

// CreateCheckout создаёт сессию оплаты пакета и возвращает URL страницы оплаты.
func (s *CheckoutService) CreateCheckout(ctx context.Context, buyer Buyer, packageID string) (string, error) {
	pkg, ok := pointPackages[packageID]
	if !ok {
		return "", ErrUnknownPackage
	}
	if buyer.UserID == "" || buyer.Email == "" {
		return "", &ValidationError{Field: "buyer", Reason: "user id and email are required"}
	}

	reqBody := createSessionRequest{
		LineItems: []LineItem{{
			Name:       fmt.Sprintf("%s (%d JackPoints)", pkg.Name, pkg.Points),
			UnitAmount: pkg.PriceCents,
			Currency:   s.Currency,
			Quantity:   1,
		}},
		SuccessURL: s.SuccessURL,
		CancelURL:  s.CancelURL,
		Metadata: map[string]string{
			"user_id":    buyer.UserID,
			"user_email": buyer.Email,
			"package":    pkg.ID,
			"points":     strconv.FormatInt(pkg.Points, 10),
		},
	}

	sess, err := s.do(ctx, http.MethodPost, "/v1/checkout/sessions", reqBody, "checkout-"+uuid.NewString())
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка создания сессии оплаты", zap.String("package", pkg.ID), zap.Error(err))
		return "", err
	}
	if sess.URL == "" {
		return "", upstream("create checkout", errors.New("empty checkout url"))
	}

	logger.WithCtx(ctx).Info("Сессия оплаты создана",
		zap.String("session_id", sess.ID),
		zap.String("package", pkg.ID),
	)
	return sess.URL, nil
}

func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	if sessionID == "" {
		return nil, &ValidationError{Field: "session_id", Reason: "is required"}
	}
	return s.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, "")
}

// Fulfill подтверждает оплату у провайдера и начисляет очки.
// Повторный вызов для той же сессии ничего не начисляет: already=true.
func (s *CheckoutService) Fulfill(ctx context.Context, sessionID string) (tx *models.Transaction, already bool, err error) {
	log := logger.WithCtx(ctx)

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if sess.Status != "complete" || sess.PaymentStatus != "paid" {
		log.Warn("Сессия оплаты не завершена",
			zap.String("session_id", sessionID),
			zap.String("status", sess.Status),
			zap.String("payment_status", sess.PaymentStatus),
		)
		return nil, false, ErrPaymentNotCompleted
	}

	md := sess.Metadata
	points, perr := strconv.ParseInt(md["points"], 10, 64)
	if perr != nil || points <= 0 || md["user_id"] == "" || md["user_email"] == "" {
		log.Error("Некорректные metadata в сессии оплаты", zap.String("session_id", sessionID), zap.Any("metadata", md))
		return nil, false, upstream("checkout metadata", fmt.Errorf("invalid metadata for session %s", sessionID))
	}

	tx, err = s.ledger.Append(ctx, &models.NewTransaction{
		ID:          "checkout_" + sess.ID,
		UserID:      md["user_id"],
		UserEmail:   md["user_email"],
		Amount:      &points,
		Description: fmt.Sprintf("Purchased %d JackPoints", points),
		Type:        models.TransactionEarn,
		Metadata: map[string]any{
			"checkout_session_id": sess.ID,
			"package":             md["package"],
		},
	})
	if errors.Is(err, ErrDuplicateTransaction) {
		log.Info("Сессия оплаты уже обработана", zap.String("session_id", sessionID))
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	log.Info("Очки за оплату начислены",
		zap.String("session_id", sessionID),
		zap.String("user_id", tx.UserID),
		zap.Int64("points", points),
	)
	return tx, false, nil
}
