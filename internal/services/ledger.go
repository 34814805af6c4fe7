package services

import (
	"context"
	"errors"
	"fmt"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"jackpoints/internal/repository"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 50
	defaultPageLimit = 20
	maxPageLimit     = 100
	// (page-1)*limit должен помещаться в int32 с любым допустимым limit
	maxPage = math.MaxInt32 / maxPageLimit
)

type TransactionRepo interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	InsertBatch(ctx context.Context, txs []*models.Transaction) (int, error)
	List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// EventPublisher получает уже сохранённые транзакции. PublishTransaction
// не должен блокировать запрос; ошибки публикации не влияют на результат записи.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, tx *models.Transaction) error
}

type noopPublisher struct{}

func (noopPublisher) PublishTransaction(context.Context, *models.Transaction) error { return nil }

type Ledger struct {
	repo      TransactionRepo
	publisher EventPublisher
	validate  *validator.Validate
	batchSize int
	now       func() time.Time
}

func NewLedger(repo TransactionRepo, publisher EventPublisher, batchSize int) *Ledger {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ledger{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (l *Ledger) validateInput(in *models.NewTransaction) error {
	if err := l.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: jsonFieldName(fe.Field()), Reason: validationReason(fe)}
		}
		return &ValidationError{Reason: err.Error()}
	}
	if strings.TrimSpace(in.UserID) == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	return nil
}

func jsonFieldName(structField string) string {
	switch structField {
	case "ID":
		return "id"
	case "UserID":
		return "userId"
	case "UserEmail":
		return "userEmail"
	case "Amount":
		return "amount"
	case "Description":
		return "description"
	case "Timestamp":
		return "timestamp"
	case "Type":
		return "type"
	}
	return structField
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

// build превращает проверенный ввод в запись леджера.
func (l *Ledger) build(in *models.NewTransaction) *models.Transaction {
	tx := &models.Transaction{
		ID:          in.ID,
		UserID:      strings.TrimSpace(in.UserID),
		UserEmail:   strings.TrimSpace(in.UserEmail),
		UserName:    in.UserName,
		Amount:      *in.Amount,
		Description: in.Description,
		Type:        in.Type,
		Metadata:    in.Metadata,
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if in.Timestamp != nil {
		tx.Timestamp = *in.Timestamp
	} else {
		tx.Timestamp = l.now().UnixMilli()
	}
	return tx
}

func (l *Ledger) publish(ctx context.Context, tx *models.Transaction) {
	if err := l.publisher.PublishTransaction(ctx, tx); err != nil {
		logger.WithCtx(ctx).Warn("Не удалось опубликовать событие транзакции",
			zap.String("transaction_id", tx.ID), zap.Error(err))
	}
}

// Append проверяет и сохраняет одну транзакцию.
func (l *Ledger) Append(ctx context.Context, in *models.NewTransaction) (*models.Transaction, error) {
	log := logger.WithCtx(ctx)

	if in == nil {
		return nil, &ValidationError{Reason: "transaction is required"}
	}
	if err := l.validateInput(in); err != nil {
		log.Warn("Невалидная транзакция", zap.Error(err))
		return nil, err
	}

	tx := l.build(in)
	if err := l.repo.Insert(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateTransaction
		}
		log.Error("Ошибка сохранения транзакции", zap.String("user_id", tx.UserID), zap.Error(err))
		return nil, upstream("insert transaction", err)
	}

	log.Info("Транзакция добавлена",
		zap.String("transaction_id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.Int64("amount", tx.Amount),
		zap.String("type", string(tx.Type)),
	)
	l.publish(ctx, tx)
	return tx, nil
}

func chunkTransactions(all []*models.NewTransaction, n int) [][]*models.NewTransaction {
	if n <= 0 {
		n = DefaultBatchSize
	}
	var out [][]*models.NewTransaction
	for i := 0; i < len(all); i += n {
		j := i + n
		if j > len(all) {
			j = len(all)
		}
		out = append(out, all[i:j])
	}
	return out
}

// AppendBatch пишет транзакции пачками по batchSize, строго последовательно.
// Пачка падает целиком (невалидный элемент или ошибка хранилища) и
// засчитывается в ErrorCount; обработка продолжается со следующей пачки.
func (l *Ledger) AppendBatch(ctx context.Context, in []*models.NewTransaction) (*models.BatchResult, error) {
	log := logger.WithCtx(ctx)

	if len(in) == 0 {
		return nil, &ValidationError{Field: "transactions", Reason: "must be a non-empty array"}
	}

	res := &models.BatchResult{}
	for i, batch := range chunkTransactions(in, l.batchSize) {
		if err := ctx.Err(); err != nil {
			// клиент ушёл: остаток не обрабатываем, считаем ошибками
			res.ErrorCount += len(in) - res.InsertedCount - res.ErrorCount
			log.Warn("Пакетная запись прервана", zap.Error(err))
			break
		}

		txs, err := l.buildBatch(batch)
		if err != nil {
			res.ErrorCount += len(batch)
			log.Warn("Пачка транзакций отклонена", zap.Int("batch", i), zap.Error(err))
			continue
		}

		n, err := l.repo.InsertBatch(ctx, txs)
		if err != nil {
			res.ErrorCount += len(batch)
			log.Error("Ошибка записи пачки транзакций", zap.Int("batch", i), zap.Int("size", len(batch)), zap.Error(err))
			continue
		}
		res.InsertedCount += n
		for _, tx := range txs {
			l.publish(ctx, tx)
		}
	}

	log.Info("Пакетная запись транзакций завершена",
		zap.Int("total", len(in)),
		zap.Int("inserted", res.InsertedCount),
		zap.Int("errors", res.ErrorCount),
	)
	return res, nil
}

func (l *Ledger) buildBatch(batch []*models.NewTransaction) ([]*models.Transaction, error) {
	txs := make([]*models.Transaction, 0, len(batch))
	for _, in := range batch {
		if in == nil {
			return nil, &ValidationError{Reason: "transaction is required"}
		}
		if err := l.validateInput(in); err != nil {
			return nil, err
		}
		txs = append(txs, l.build(in))
	}
	return txs, nil
}

// Query фильтрует по userId и type, сортирует по timestamp по убыванию.
// HasMore считается эвристически: страница заполнена целиком.
func (l *Ledger) Query(ctx context.Context, f models.TransactionFilter) (*models.TransactionPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > maxPage {
		return nil, &ValidationError{Field: "page", Reason: fmt.Sprintf("must be at most %d", maxPage)}
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Type != "" {
		switch f.Type {
		case models.TransactionEarn, models.TransactionSpend, models.TransactionBonus, models.TransactionEvent, models.TransactionAdmin:
		default:
			return nil, &ValidationError{Field: "type", Reason: "must be one of: earn spend bonus event admin"}
		}
	}

	txs, err := l.repo.List(ctx, f)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка получения транзакций", zap.Error(err))
		return nil, upstream("list transactions", err)
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}

	return &models.TransactionPage{
		Transactions: txs,
		Meta: models.PageMeta{
			Page:    f.Page,
			Limit:   f.Limit,
			HasMore: len(txs) == f.Limit,
		},
	}, nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, &ValidationError{Field: "userId", Reason: "is required"}
	}
	sum, err := l.repo.Balance(ctx, userID)
	if err != nil {
		return 0, upstream("balance", err)
	}
	return sum, nil
}
